package models

// Appealable is the normalized tri-state of a sheet's appealable column.
type Appealable string

const (
	AppealableYes         Appealable = "Yes"
	AppealableNo          Appealable = "No"
	AppealableUnspecified Appealable = "Not specified"
)

// BlacklistRecord is one blacklisted identity in one source. SubjectID stays
// a string: sheet ids can exceed int64 and are only ever compared, never
// computed with.
type BlacklistRecord struct {
	SourceName    string
	SubjectHandle string
	SubjectID     string
	BanLength     string
	Appealable    Appealable
	Reason        string
	Retracted     bool
}
