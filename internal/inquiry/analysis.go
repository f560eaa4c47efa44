// Package inquiry turns contact-form notification text into a classified,
// estimated and annotated Analysis. Everything here is pure: no I/O, no
// configuration and no shared mutable state, so it is safe to call from
// any number of goroutines.
package inquiry

import "time"

// Analysis is the derived record for one inquiry.
type Analysis struct {
	InquiryType          InquiryType `json:"inquiry_type"`
	Complexity           Complexity  `json:"complexity"`
	Urgency              Urgency     `json:"urgency"`
	EstimatedHours       string      `json:"estimated_hours"`
	EstimatedCost        string      `json:"estimated_cost"`
	ResponseSuggestions  []string    `json:"response_suggestions"`
	RecommendedNextSteps []string    `json:"recommended_next_steps"`
	AnalyzedAt           time.Time   `json:"analysis_timestamp"`
}

// Analyze classifies, estimates and advises on an extracted FieldSet.
// at is stamped on the result unchanged.
func Analyze(fields FieldSet, at time.Time) Analysis {
	c := Classify(fields)
	est := EstimateProject(c.Complexity, fields.GetOr(FieldService, ""))

	return Analysis{
		InquiryType:          c.Type,
		Complexity:           c.Complexity,
		Urgency:              c.Urgency,
		EstimatedHours:       est.Hours,
		EstimatedCost:        est.Cost,
		ResponseSuggestions:  Suggest(c.Type, c.Complexity, fields),
		RecommendedNextSteps: NextSteps(c.Type),
		AnalyzedAt:           at,
	}
}

// Analyzer stamps analyses with the time from its clock.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer returns an Analyzer using now, or time.Now when now is nil.
func NewAnalyzer(now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{now: now}
}

// Analyze runs the package-level Analyze with the current time.
func (a *Analyzer) Analyze(fields FieldSet) Analysis {
	return Analyze(fields, a.now())
}
