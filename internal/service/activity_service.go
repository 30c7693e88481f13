package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// ActivityService converts message/reaction events into weighted point
// records. It holds no running total: a user's score is always derived from
// the ledger at query time, so this layer cannot drift from it.
type ActivityService struct {
	identity   *IdentityService
	activities repository.ActivityRepository
	logger     *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(identity *IdentityService, activities repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{identity: identity, activities: activities, logger: logger}
}

// RecordActivity writes one immutable weighted event. Delivery of the same
// platform event twice yields two rows; de-duplication belongs to the
// ingestion boundary.
func (s *ActivityService) RecordActivity(ctx context.Context, actor ResolveInput, kind domain.ActivityKind, channelRef *string, occurredAt time.Time) error {
	weight, ok := domain.WeightFor(kind)
	if !ok {
		return apperrors.NewInvalidEventKind(string(kind))
	}

	profile, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return err
	}

	event := &domain.ActivityEvent{
		UserID:     profile.ID,
		Kind:       kind,
		Weight:     weight,
		ChannelRef: channelRef,
		OccurredAt: occurredAt,
	}
	if err := s.activities.Create(ctx, event); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	s.logger.Debug("activity recorded",
		zap.String("user_id", profile.ID),
		zap.String("kind", string(kind)),
		zap.Float64("weight", weight))
	return nil
}
