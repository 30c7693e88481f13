package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/events"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// TicketService governs the support-ticket lifecycle: a monotonic walk
// OPEN -> IN_PROGRESS -> RESOLVED with an append-only audit trail. Callers
// must serialize transitions per ticket; the ingest router holds a per-key
// lock around Advance.
type TicketService struct {
	identity     *IdentityService
	tickets      repository.TicketRepository
	ticketEvents repository.TicketEventRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Identity        *IdentityService
	TicketRepo      repository.TicketRepository
	TicketEventRepo repository.TicketEventRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		identity:     deps.Identity,
		tickets:      deps.TicketRepo,
		ticketEvents: deps.TicketEventRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
	}
}

// Create opens a ticket bound 1:1 to a platform channel and appends the
// created audit entry. A channel already bound to a ticket fails with
// DUPLICATE_CHANNEL.
func (s *TicketService) Create(ctx context.Context, author ResolveInput, channelRef, subject string, at time.Time) (*domain.Ticket, error) {
	channelRef = strings.TrimSpace(channelRef)
	if channelRef == "" {
		return nil, apperrors.NewValidationError("channel ref is required", nil)
	}

	profile, err := s.identity.Resolve(ctx, author)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		AuthorID:   profile.ID,
		ChannelRef: channelRef,
		Subject:    strings.TrimSpace(subject),
		Status:     domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if apperrors.IsCode(err, "DUPLICATE_CHANNEL") {
			return nil, err
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	note := fmt.Sprintf("Ticket opened by %s. Subject: %s", profile.Username, ticket.Subject)
	s.appendEvent(ctx, &domain.TicketEvent{
		TicketID: ticket.ID,
		ActorID:  profile.ID,
		Action:   domain.TicketActionCreated,
		Note:     &note,
	})

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  profile.ID,
		Payload: events.TicketCreatedPayload{
			ChannelRef: ticket.ChannelRef,
			Subject:    ticket.Subject,
		},
	})
	return ticket, nil
}

// Advance moves a ticket forward to target. Backward moves and transitions
// to the current status fail with INVALID_TRANSITION and leave the ticket
// unchanged.
func (s *TicketService) Advance(ctx context.Context, ticketID string, target domain.TicketStatus, actor ResolveInput, at time.Time) error {
	if !domain.ValidTicketStatus(target) {
		return apperrors.NewValidationError("unknown ticket status", map[string]any{"status": target})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if !domain.IsValidTransition(ticket.Status, target) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(target))
	}

	profile, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return err
	}

	var resolvedAt *time.Time
	if target == domain.TicketStatusResolved {
		resolvedAt = &at
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, ticket.Status, target, resolvedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the guarded update lost to a concurrent transition
			return apperrors.NewInvalidTransition(string(ticket.Status), string(target))
		}
		return apperrors.NewStoreUnavailable(err)
	}

	oldStatus := ticket.Status
	s.appendEvent(ctx, &domain.TicketEvent{
		TicketID:  ticket.ID,
		ActorID:   profile.ID,
		Action:    domain.TicketActionStatusChanged,
		OldStatus: &oldStatus,
		NewStatus: &target,
	})

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  profile.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: target,
		},
	})
	if target == domain.TicketStatusResolved {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketResolved,
			TicketID: ticket.ID,
			ActorID:  profile.ID,
			Payload: events.TicketResolvedPayload{
				ChannelRef: ticket.ChannelRef,
			},
		})
	}
	return nil
}

// Close resolves the ticket. Archival of the bound channel is delegated to
// the platform collaborator via the ticket_resolved event.
func (s *TicketService) Close(ctx context.Context, ticketID string, actor ResolveInput, at time.Time) error {
	return s.Advance(ctx, ticketID, domain.TicketStatusResolved, actor, at)
}

// GetByChannel looks up the ticket bound to a channel. Pure read.
func (s *TicketService) GetByChannel(ctx context.Context, channelRef string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByChannel(ctx, channelRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"channel_ref": channelRef})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

// ListByStatus returns tickets in the given status. Pure read.
func (s *TicketService) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	if !domain.ValidTicketStatus(status) {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": status})
	}
	tickets, err := s.tickets.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// History returns the audit trail for a ticket, ordered by timestamp.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	entries, err := s.ticketEvents.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return entries, nil
}

func (s *TicketService) appendEvent(ctx context.Context, event *domain.TicketEvent) {
	if err := s.ticketEvents.Create(ctx, event); err != nil {
		s.logger.Error("failed to append ticket event",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
