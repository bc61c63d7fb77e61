package models

import "time"

// Identity is the canonical record a query resolves to. Immutable once
// fetched; resolved fresh per request.
type Identity struct {
	ID          int64
	Handle      string
	DisplayName string
	CreatedAt   time.Time
}

// GroupMembership is one group the subject belongs to, derived per request
// from the directory service. JoinedAt is nil when the join date could not
// be determined.
type GroupMembership struct {
	GroupID   string
	GroupName string
	Role      string
	JoinedAt  *time.Time
}
