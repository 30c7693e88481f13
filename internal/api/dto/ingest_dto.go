package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/ingest"
	"github.com/spec-kit/engagement-core/internal/service"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// ActorRef identifies the platform member behind an event, with whatever
// profile metadata the gateway had on hand.
type ActorRef struct {
	ExternalID    string     `json:"external_id"`
	Username      string     `json:"username,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	GuildJoinedAt *time.Time `json:"guild_joined_at,omitempty"`
}

func (a ActorRef) toResolveInput() service.ResolveInput {
	return service.ResolveInput{
		ExternalID:    a.ExternalID,
		Username:      a.Username,
		AvatarURL:     a.AvatarURL,
		GuildJoinedAt: a.GuildJoinedAt,
	}
}

// IngestEventRequest is the wire envelope for one inbound platform event.
// Only the fields relevant to the declared kind are read.
type IngestEventRequest struct {
	Kind       string    `json:"kind"`
	Actor      ActorRef  `json:"actor"`
	ChannelRef *string   `json:"channel_ref,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	TicketID   string    `json:"ticket_id,omitempty"`
	Target     string    `json:"target,omitempty"`
	Previous   string    `json:"previous,omitempty"`
	Next       string    `json:"next,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToEvent maps the envelope onto the closed typed event set. Kinds outside
// the set fail with INVALID_EVENT_KIND.
func (r IngestEventRequest) ToEvent() (ingest.Event, error) {
	occurredAt := r.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	actor := r.Actor.toResolveInput()

	switch strings.TrimSpace(r.Kind) {
	case "message":
		return ingest.MessagePosted{Author: actor, ChannelRef: r.ChannelRef, OccurredAt: occurredAt}, nil
	case "reaction":
		return ingest.ReactionAdded{Author: actor, ChannelRef: r.ChannelRef, OccurredAt: occurredAt}, nil
	case "member_join":
		return ingest.MemberJoined{Member: actor, OccurredAt: occurredAt}, nil
	case "member_leave":
		return ingest.MemberLeft{Member: actor, OccurredAt: occurredAt}, nil
	case "presence_changed":
		return ingest.PresenceChanged{
			Member:     actor,
			Previous:   domain.PresenceStatus(r.Previous),
			Next:       domain.PresenceStatus(r.Next),
			OccurredAt: occurredAt,
		}, nil
	case "ticket_opened":
		channelRef := ""
		if r.ChannelRef != nil {
			channelRef = *r.ChannelRef
		}
		return ingest.TicketOpened{
			Author:     actor,
			ChannelRef: channelRef,
			Subject:    r.Subject,
			OccurredAt: occurredAt,
		}, nil
	case "ticket_advanced":
		return ingest.TicketAdvanced{
			TicketID:   r.TicketID,
			Target:     domain.TicketStatus(r.Target),
			Actor:      actor,
			OccurredAt: occurredAt,
		}, nil
	default:
		return nil, apperrors.NewInvalidEventKind(r.Kind)
	}
}

// ClassifierCallRequest records one round-trip to the external classifier.
type ClassifierCallRequest struct {
	Actor            *ActorRef `json:"actor,omitempty"`
	CommandName      string    `json:"command_name"`
	InputPrompt      string    `json:"input_prompt"`
	RawResponse      *string   `json:"raw_response,omitempty"`
	TokensUsed       *int      `json:"tokens_used,omitempty"`
	ProcessingTimeMS *int64    `json:"processing_time_ms,omitempty"`
}

// ToInput converts the request into the service input.
func (r ClassifierCallRequest) ToInput() service.ClassifierCallInput {
	input := service.ClassifierCallInput{
		CommandName:      r.CommandName,
		InputPrompt:      r.InputPrompt,
		RawResponse:      r.RawResponse,
		TokensUsed:       r.TokensUsed,
		ProcessingTimeMS: r.ProcessingTimeMS,
	}
	if r.Actor != nil {
		resolve := r.Actor.toResolveInput()
		input.Actor = &resolve
	}
	return input
}
