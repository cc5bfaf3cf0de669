package domain

// Judgment is the rubric judge's verdict for one plan. Passed, Partial,
// and Failed are disjoint and together cover the full rubric; Score is
// always recomputed from their cardinalities, never taken from the model.
type Judgment struct {
	Passed   []string          `json:"passed"`
	Partial  []string          `json:"partial"`
	Failed   []string          `json:"failed"`
	Feedback map[string]string `json:"feedback,omitempty"`
	Score    float64           `json:"score"`
}
