package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The walk through
// statuses is monotonic: a ticket never moves backward.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// ValidTicketStatus reports whether status belongs to the closed set.
func ValidTicketStatus(status TicketStatus) bool {
	switch status {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusInProgress: {TicketStatusResolved},
	TicketStatusResolved:   {},
}

// IsValidTransition reports whether current -> next is a legal forward move.
// Transitions to the current status are rejected.
func IsValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests, bound 1:1 to a platform
// channel via ChannelRef.
type Ticket struct {
	ID         string
	AuthorID   string
	ChannelRef string
	Subject    string
	Status     TicketStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}
