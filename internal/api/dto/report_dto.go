package dto

import (
	"time"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID         string              `json:"id"`
	AuthorID   string              `json:"author_id"`
	ChannelRef string              `json:"channel_ref"`
	Subject    string              `json:"subject"`
	Status     domain.TicketStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ResolvedAt *time.Time          `json:"resolved_at,omitempty"`
}

// TicketEventView response.
type TicketEventView struct {
	ID        string               `json:"id"`
	ActorID   string               `json:"actor_id"`
	Action    domain.TicketAction  `json:"action"`
	OldStatus *domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus *domain.TicketStatus `json:"new_status,omitempty"`
	Note      *string              `json:"note,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// FromTicket maps the domain aggregate to the response shape.
func FromTicket(ticket domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:         ticket.ID,
		AuthorID:   ticket.AuthorID,
		ChannelRef: ticket.ChannelRef,
		Subject:    ticket.Subject,
		Status:     ticket.Status,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
		ResolvedAt: ticket.ResolvedAt,
	}
}

// FromTicketEvent maps an audit entry to the response shape.
func FromTicketEvent(event domain.TicketEvent) TicketEventView {
	return TicketEventView{
		ID:        event.ID,
		ActorID:   event.ActorID,
		Action:    event.Action,
		OldStatus: event.OldStatus,
		NewStatus: event.NewStatus,
		Note:      event.Note,
		CreatedAt: event.CreatedAt,
	}
}
