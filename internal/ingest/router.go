package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/config"
	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/observability"
	"github.com/spec-kit/engagement-core/internal/service"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// ActivityRecorder accepts scored engagement events.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, actor service.ResolveInput, kind domain.ActivityKind, channelRef *string, occurredAt time.Time) error
}

// MembershipRecorder accepts join/leave events.
type MembershipRecorder interface {
	RecordMembership(ctx context.Context, member service.ResolveInput, kind domain.MemberEventKind, occurredAt time.Time) error
}

// PresenceTracker accepts presence transitions.
type PresenceTracker interface {
	ApplyUpdate(ctx context.Context, member service.ResolveInput, previous, next domain.PresenceStatus, at time.Time) error
}

// TicketManager accepts ticket lifecycle events.
type TicketManager interface {
	Create(ctx context.Context, author service.ResolveInput, channelRef, subject string, at time.Time) (*domain.Ticket, error)
	Advance(ctx context.Context, ticketID string, target domain.TicketStatus, actor service.ResolveInput, at time.Time) error
}

// RouterDependencies bundles the per-kind recorders.
type RouterDependencies struct {
	Scorer    ActivityRecorder
	Lifecycle MembershipRecorder
	Presence  PresenceTracker
	Tickets   TicketManager
	Tracking  config.TrackingConfig
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Router delivers each inbound event to exactly one recorder. Presence and
// ticket events for the same key are applied under a per-key lock so writes
// never interleave out of order; events for different users stay fully
// independent. The router never retries: typed failures go back to the
// platform boundary.
type Router struct {
	scorer    ActivityRecorder
	lifecycle MembershipRecorder
	presence  PresenceTracker
	tickets   TicketManager
	tracking  config.TrackingConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
	locks     *KeyedMutex
}

// NewRouter constructs the router.
func NewRouter(deps RouterDependencies) *Router {
	return &Router{
		scorer:    deps.Scorer,
		lifecycle: deps.Lifecycle,
		presence:  deps.Presence,
		tickets:   deps.Tickets,
		tracking:  deps.Tracking,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		locks:     NewKeyedMutex(),
	}
}

// Dispatch routes one event. Ignored members are dropped before any write.
func (r *Router) Dispatch(ctx context.Context, event Event) error {
	r.metrics.RecordEvent(event.Kind())

	switch ev := event.(type) {
	case MessagePosted:
		if r.dropIgnored(ev.Author.ExternalID, ev) {
			return nil
		}
		return r.scorer.RecordActivity(ctx, ev.Author, domain.ActivityMessage, ev.ChannelRef, ev.OccurredAt)

	case ReactionAdded:
		if r.dropIgnored(ev.Author.ExternalID, ev) {
			return nil
		}
		return r.scorer.RecordActivity(ctx, ev.Author, domain.ActivityReaction, ev.ChannelRef, ev.OccurredAt)

	case MemberJoined:
		if r.dropIgnored(ev.Member.ExternalID, ev) {
			return nil
		}
		return r.lifecycle.RecordMembership(ctx, ev.Member, domain.MemberJoin, ev.OccurredAt)

	case MemberLeft:
		if r.dropIgnored(ev.Member.ExternalID, ev) {
			return nil
		}
		return r.lifecycle.RecordMembership(ctx, ev.Member, domain.MemberLeave, ev.OccurredAt)

	case PresenceChanged:
		if r.dropIgnored(ev.Member.ExternalID, ev) {
			return nil
		}
		key := "presence/" + ev.Member.ExternalID
		r.locks.Lock(key)
		defer r.locks.Unlock(key)
		return r.presence.ApplyUpdate(ctx, ev.Member, ev.Previous, ev.Next, ev.OccurredAt)

	case TicketOpened:
		if r.dropIgnored(ev.Author.ExternalID, ev) {
			return nil
		}
		key := "ticket/" + ev.ChannelRef
		r.locks.Lock(key)
		defer r.locks.Unlock(key)
		_, err := r.tickets.Create(ctx, ev.Author, ev.ChannelRef, ev.Subject, ev.OccurredAt)
		return err

	case TicketAdvanced:
		key := "ticket/" + ev.TicketID
		r.locks.Lock(key)
		defer r.locks.Unlock(key)
		return r.tickets.Advance(ctx, ev.TicketID, ev.Target, ev.Actor, ev.OccurredAt)

	default:
		return apperrors.NewInvalidEventKind(fmt.Sprintf("%T", event))
	}
}

func (r *Router) dropIgnored(externalID string, event Event) bool {
	if !r.tracking.IsIgnored(externalID) {
		return false
	}
	r.logger.Debug("dropping event from ignored member",
		zap.String("external_id", externalID),
		zap.String("kind", event.Kind()))
	return true
}
