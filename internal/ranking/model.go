package ranking

// Breakdown holds the five per-dimension scores, each in [0,100].
type Breakdown struct {
	SkillsMatch int `json:"skillsMatch"`
	Experience  int `json:"experience"`
	Education   int `json:"education"`
	ATSScore    int `json:"atsScore"`
	CareerFit   int `json:"careerFit"`
}

// AnalysisResult is the normalized score for one resume.
type AnalysisResult struct {
	Filename       string    `json:"filename"`
	OverallScore   int       `json:"overallScore"`
	Breakdown      Breakdown `json:"breakdown"`
	Strengths      []string  `json:"strengths"`
	Gaps           []string  `json:"gaps"`
	Recommendation string    `json:"recommendation"`
}

// SkippedFile reports an uploaded file whose text could not be extracted.
type SkippedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Upload is one resume file received in a rank request.
type Upload struct {
	Filename string
	Data     []byte
}

// Outcome is what a rank request produced.
type Outcome struct {
	Results   []AnalysisResult `json:"results"`
	Skipped   []SkippedFile    `json:"skipped"`
	Used      int              `json:"used"`
	Limit     int              `json:"limit"`
	Remaining int              `json:"remaining"`
}
