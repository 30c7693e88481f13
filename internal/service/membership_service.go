package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// MembershipService appends join/leave events to the lifecycle ledger.
// Strictly append-only; duplicates are tolerated, never deduplicated.
type MembershipService struct {
	identity *IdentityService
	events   repository.MemberEventRepository
	logger   *zap.Logger
}

// NewMembershipService constructs the service.
func NewMembershipService(identity *IdentityService, events repository.MemberEventRepository, logger *zap.Logger) *MembershipService {
	return &MembershipService{identity: identity, events: events, logger: logger}
}

// RecordMembership resolves identity first, then appends the transition.
// A leave must not be dropped because profile creation failed after the
// fact: when the upsert errors on a leave, the recorder falls back to the
// already-stored profile and still appends the row.
func (s *MembershipService) RecordMembership(ctx context.Context, member ResolveInput, kind domain.MemberEventKind, occurredAt time.Time) error {
	if !domain.ValidMemberEventKind(kind) {
		return apperrors.NewInvalidEventKind(string(kind))
	}

	profile, err := s.identity.Resolve(ctx, member)
	if err != nil {
		if kind != domain.MemberLeave {
			return err
		}
		s.logger.Warn("identity resolution failed on leave; falling back to stored profile",
			zap.String("external_id", member.ExternalID),
			zap.Error(err))
		profile, err = s.identity.Lookup(ctx, member.ExternalID)
		if err != nil {
			return err
		}
	}

	event := &domain.MemberEvent{
		UserID:     profile.ID,
		Kind:       kind,
		OccurredAt: occurredAt,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}
