package ranking

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// DefaultScore is used for every breakdown field when a response cannot be parsed.
	DefaultScore = 50
	// DefaultRecommendation accompanies default scores.
	DefaultRecommendation = "Unable to fully assess — manual review recommended"
	// FallbackRecommendation replaces a missing or blank recommendation.
	FallbackRecommendation = "Review Manually"
)

var breakdownKeys = []string{"skillsMatch", "experience", "education", "atsScore", "careerFit"}

// Weights in percent. They sum to 100.
const (
	weightSkills     = 30
	weightExperience = 25
	weightEducation  = 15
	weightATS        = 20
	weightCareerFit  = 10
)

// Defaults returns the neutral result used when scoring is impossible.
func Defaults(filename string) AnalysisResult {
	b := Breakdown{
		SkillsMatch: DefaultScore,
		Experience:  DefaultScore,
		Education:   DefaultScore,
		ATSScore:    DefaultScore,
		CareerFit:   DefaultScore,
	}
	return AnalysisResult{
		Filename:       filename,
		OverallScore:   OverallScore(b),
		Breakdown:      b,
		Strengths:      []string{},
		Gaps:           []string{},
		Recommendation: DefaultRecommendation,
	}
}

// OverallScore is the weighted sum of b computed in integer hundredths and
// rounded to the nearest integer, ties to even.
func OverallScore(b Breakdown) int {
	sum := weightSkills*b.SkillsMatch +
		weightExperience*b.Experience +
		weightEducation*b.Education +
		weightATS*b.ATSScore +
		weightCareerFit*b.CareerFit
	q, r := sum/100, sum%100
	if r > 50 || (r == 50 && q%2 == 1) {
		q++
	}
	return clamp(q)
}

// Normalize turns raw model output into an AnalysisResult. It never fails:
// unparseable output or a missing breakdown yields Defaults(filename).
func Normalize(raw, filename string) AnalysisResult {
	doc, ok := locateObject(raw)
	if !ok {
		return Defaults(filename)
	}

	bd := doc.Get("breakdown")
	if !bd.IsObject() || !hasAnyKey(bd, breakdownKeys) {
		return Defaults(filename)
	}

	b := Breakdown{
		SkillsMatch: score(bd.Get("skillsMatch")),
		Experience:  score(bd.Get("experience")),
		Education:   score(bd.Get("education")),
		ATSScore:    score(bd.Get("atsScore")),
		CareerFit:   score(bd.Get("careerFit")),
	}

	rec := scalarString(doc.Get("recommendation"))
	if rec == "" {
		rec = FallbackRecommendation
	}

	return AnalysisResult{
		Filename:       filename,
		OverallScore:   OverallScore(b),
		Breakdown:      b,
		Strengths:      stringList(doc.Get("strengths")),
		Gaps:           stringList(doc.Get("gaps")),
		Recommendation: rec,
	}
}

func locateObject(raw string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return gjson.Result{}, false
	}
	if isObject(trimmed) {
		return gjson.Parse(trimmed), true
	}
	obj, ok := findObject(trimmed, isObject)
	if !ok {
		return gjson.Result{}, false
	}
	return gjson.Parse(obj), true
}

func isObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}

func hasAnyKey(obj gjson.Result, keys []string) bool {
	for _, k := range keys {
		if obj.Get(k).Exists() {
			return true
		}
	}
	return false
}

// score coerces a JSON value into [0,100]. Numeric strings are parsed, other
// non-numbers become 0 and fractions truncate toward zero.
func score(v gjson.Result) int {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		s := strings.TrimSuffix(strings.TrimSpace(v.Str), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	if f >= 100 {
		return 100
	}
	if f <= 0 {
		return 0
	}
	return int(f)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	default:
		return ""
	}
}

// stringList always returns a non-nil slice. A lone string becomes a
// one-element list; nested values are kept as their JSON text.
func stringList(v gjson.Result) []string {
	out := []string{}
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			var s string
			switch item.Type {
			case gjson.String:
				s = strings.TrimSpace(item.Str)
			case gjson.Null:
				continue
			default:
				s = strings.TrimSpace(item.Raw)
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}
