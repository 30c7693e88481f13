package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// ResolveInput carries the platform identity plus whatever profile metadata
// the event happened to include. Only ExternalID is required.
type ResolveInput struct {
	ExternalID    string
	Username      string
	AvatarURL     *string
	GuildJoinedAt *time.Time
}

// IdentityService maps platform member identifiers to internal profiles,
// creating them lazily on first sight.
type IdentityService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewIdentityService constructs the service.
func NewIdentityService(users repository.UserRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Resolve returns the profile for an external identity, creating it when
// unseen. The write is an atomic upsert, so concurrent first-sight callers
// converge on the same record. Profile metadata is refreshed on every call;
// FirstSeenAt is write-once.
func (s *IdentityService) Resolve(ctx context.Context, input ResolveInput) (*domain.UserProfile, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, apperrors.NewValidationError("external id is required", nil)
	}

	profile := &domain.UserProfile{
		ExternalID:    externalID,
		Username:      strings.TrimSpace(input.Username),
		AvatarURL:     input.AvatarURL,
		GuildJoinedAt: input.GuildJoinedAt,
	}
	if err := s.users.Upsert(ctx, profile); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return profile, nil
}

// Lookup fetches an existing profile by external identity without creating
// one.
func (s *IdentityService) Lookup(ctx context.Context, externalID string) (*domain.UserProfile, error) {
	profile, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}
