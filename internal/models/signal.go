package models

// IntSignal is a count that may be unknown when the upstream call failed.
// Unknown is a first-class value so the decision engine and the report can
// distinguish "verified low" from "could not verify".
type IntSignal struct {
	Known bool
	Value int
}

// KnownInt returns a known IntSignal.
func KnownInt(v int) IntSignal {
	return IntSignal{Known: true, Value: v}
}

// MonthsSignal is a duration in months that may be unknown.
type MonthsSignal struct {
	Known  bool
	Months float64
}

// KnownMonths returns a known MonthsSignal.
func KnownMonths(m float64) MonthsSignal {
	return MonthsSignal{Known: true, Months: m}
}
