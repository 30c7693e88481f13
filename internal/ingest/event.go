package ingest

import (
	"time"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/service"
)

// Event is the closed set of inbound platform events. Routing is a static
// type switch over this set, so an unhandled kind is a compile-time gap, not
// a silent runtime no-op.
type Event interface {
	Kind() string
}

// MessagePosted is a member message in a tracked channel.
type MessagePosted struct {
	Author     service.ResolveInput
	ChannelRef *string
	OccurredAt time.Time
}

// ReactionAdded is a member reaction to any message.
type ReactionAdded struct {
	Author     service.ResolveInput
	ChannelRef *string
	OccurredAt time.Time
}

// MemberJoined is a guild join.
type MemberJoined struct {
	Member     service.ResolveInput
	OccurredAt time.Time
}

// MemberLeft is a guild leave.
type MemberLeft struct {
	Member     service.ResolveInput
	OccurredAt time.Time
}

// PresenceChanged carries a (previous, new) presence status pair.
type PresenceChanged struct {
	Member     service.ResolveInput
	Previous   domain.PresenceStatus
	Next       domain.PresenceStatus
	OccurredAt time.Time
}

// TicketOpened is a support-ticket creation bound to a channel.
type TicketOpened struct {
	Author     service.ResolveInput
	ChannelRef string
	Subject    string
	OccurredAt time.Time
}

// TicketAdvanced is a staff-driven ticket status transition.
type TicketAdvanced struct {
	TicketID   string
	Target     domain.TicketStatus
	Actor      service.ResolveInput
	OccurredAt time.Time
}

func (MessagePosted) Kind() string   { return "message" }
func (ReactionAdded) Kind() string   { return "reaction" }
func (MemberJoined) Kind() string    { return "member_join" }
func (MemberLeft) Kind() string      { return "member_leave" }
func (PresenceChanged) Kind() string { return "presence_changed" }
func (TicketOpened) Kind() string    { return "ticket_opened" }
func (TicketAdvanced) Kind() string  { return "ticket_advanced" }
