package llm

import (
	_ "embed"
	"strings"

	"resume-ranker/internal/shared/util"
)

// MaxResumeRunes bounds how much resume text is sent to the model.
const MaxResumeRunes = 4000

//go:embed prompts/rank.txt
var rankPrompt string

// RankPrompt returns the raw scoring prompt template.
func RankPrompt() string {
	return rankPrompt
}

// BuildRankPrompt fills the scoring template. Resume text is truncated to
// MaxResumeRunes.
func BuildRankPrompt(jobDescription, filename, resumeText string) string {
	r := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", strings.TrimSpace(jobDescription),
		"{{FILENAME}}", filename,
		"{{RESUME_TEXT}}", util.TruncateRunes(resumeText, MaxResumeRunes),
	)
	return r.Replace(rankPrompt)
}
