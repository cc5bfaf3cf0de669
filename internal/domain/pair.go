package domain

// PlanSample is one judged candidate inside a preference pair.
type PlanSample struct {
	Plan        *Plan             `json:"plan"`
	Analysis    string            `json:"analysis"`
	Temperature float64           `json:"temperature"`
	Score       float64           `json:"score"`
	Passed      []string          `json:"passed"`
	Partial     []string          `json:"partial"`
	Failed      []string          `json:"failed"`
	Feedback    map[string]string `json:"feedback,omitempty"`
}

// PreferencePair is a {better, worse} record over two plans for the same
// scenario. Invariant: Better.Score - Worse.Score >= the builder's gap
// threshold.
type PreferencePair struct {
	Scenario       string     `json:"scenario"`
	Better         PlanSample `json:"better"`
	Worse          PlanSample `json:"worse"`
	ScoreGap       float64    `json:"score_gap"`
	KeyDifferences []string   `json:"key_differences"`
}
