package domain

import "time"

// MemberEventKind enumerates lifecycle transitions.
type MemberEventKind string

const (
	MemberJoin  MemberEventKind = "join"
	MemberLeave MemberEventKind = "leave"
)

// ValidMemberEventKind reports whether kind is in the closed lifecycle set.
func ValidMemberEventKind(kind MemberEventKind) bool {
	return kind == MemberJoin || kind == MemberLeave
}

// MemberEvent is one join/leave transition in the append-only lifecycle
// ledger. Duplicates are tolerated, not deduplicated.
type MemberEvent struct {
	ID         string
	UserID     string
	Kind       MemberEventKind
	OccurredAt time.Time
	CreatedAt  time.Time
}
