package entity

import "time"

// AuditEvent is one immutable trail entry for an authentication flow.
type AuditEvent struct {
	ID         int64
	Action     string
	ActorEmail string
	Outcome    string
	Detail     string
	IPAddress  string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// EventFilter narrows event listing and export. Zero values mean no
// constraint on that dimension.
type EventFilter struct {
	Action     string
	ActorEmail string
	Outcome    string
	DateFrom   time.Time
	DateTo     time.Time
	Size       int32
	Page       int32
}
