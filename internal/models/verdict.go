package models

// Outcome is the overall result of a background check.
type Outcome string

const (
	OutcomePass Outcome = "PASS"
	OutcomeFail Outcome = "FAIL"
)

// Field is one evaluated line of the report, in display order.
type Field struct {
	Name  string
	Value string
}

// Verdict is the result of evaluating one identity: the pass/fail outcome,
// the contributing factors in fixed evaluation order, and the per-field
// display values. Computed fresh per request, never persisted.
type Verdict struct {
	Outcome Outcome
	Factors []string
	Fields  []Field
}

// FieldValue returns the display value for a named field, or "" when the
// field is not part of the report.
func (v *Verdict) FieldValue(name string) string {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
