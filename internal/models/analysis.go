package models

// ReportAnalysis is the structured reply the model is instructed to return.
// Replies that do not decode into this shape are kept as raw text instead;
// the schema is advisory, never enforced.
type ReportAnalysis struct {
	Summary              string            `json:"summary"`
	AbnormalFindings     []AbnormalFinding `json:"abnormal_findings"`
	RecommendedTests     []string          `json:"recommended_tests"`
	LifestyleSuggestions []string          `json:"lifestyle_suggestions"`
	Urgency              string            `json:"urgency"`
}

// AbnormalFinding describes one out-of-range parameter in a report.
type AbnormalFinding struct {
	Parameter   string `json:"parameter"`
	Value       string `json:"value"`
	NormalRange string `json:"normal_range"`
	Severity    string `json:"severity"`
}
