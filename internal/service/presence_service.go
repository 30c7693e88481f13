package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// PresenceService maintains one open session per user, closing and opening
// sessions on status transitions. Callers must serialize updates per user;
// the ingest router holds a per-user lock around ApplyUpdate.
type PresenceService struct {
	identity *IdentityService
	sessions repository.PresenceRepository
	logger   *zap.Logger
}

// NewPresenceService constructs the service.
func NewPresenceService(identity *IdentityService, sessions repository.PresenceRepository, logger *zap.Logger) *PresenceService {
	return &PresenceService{identity: identity, sessions: sessions, logger: logger}
}

// Reconcile force-closes every session left open by the previous process.
// It must complete before any presence update is accepted; a failure here is
// fatal to startup because session state would be unknown.
func (s *PresenceService) Reconcile(ctx context.Context) error {
	now := time.Now().UTC()
	closed, err := s.sessions.CloseAllOpen(ctx, now)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if closed > 0 {
		s.logger.Info("reconciled stale presence sessions", zap.Int64("closed", closed))
	}
	return nil
}

// ApplyUpdate applies one (previous, new) status pair for a user. A lateral
// status change closes the open session and opens a new one, producing two
// session boundaries.
func (s *PresenceService) ApplyUpdate(ctx context.Context, member ResolveInput, previous, next domain.PresenceStatus, at time.Time) error {
	profile, err := s.identity.Resolve(ctx, member)
	if err != nil {
		return err
	}

	open, err := s.sessions.FindOpenByUser(ctx, profile.ID)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}

	state := domain.NoSession()
	if open != nil {
		state = domain.OpenSession(open.Status, open.StartedAt)
	}

	plan := domain.PlanTransition(previous, next, state)
	if plan.CloseOpen {
		duration := int64(at.Sub(open.StartedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}
		if err := s.sessions.Close(ctx, open.ID, at, duration); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
	}
	if plan.OpenNew {
		session := &domain.PresenceSession{
			UserID:    profile.ID,
			Status:    plan.OpenStatus,
			StartedAt: at,
		}
		if err := s.sessions.Open(ctx, session); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
	}
	return nil
}
