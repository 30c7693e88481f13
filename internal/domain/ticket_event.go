package domain

import "time"

// TicketAction captures what a ticket audit entry records.
type TicketAction string

const (
	TicketActionCreated       TicketAction = "CREATED"
	TicketActionStatusChanged TicketAction = "STATUS_CHANGED"
	TicketActionNote          TicketAction = "NOTE"
)

// TicketEvent is an immutable audit entry in a ticket's history, ordered by
// CreatedAt. Owned by exactly one ticket.
type TicketEvent struct {
	ID         string
	TicketID   string
	ActorID    string
	Action     TicketAction
	OldStatus  *TicketStatus
	NewStatus  *TicketStatus
	Note       *string
	IsInternal bool
	CreatedAt  time.Time
}
