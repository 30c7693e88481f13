package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// AuditService appends an audit row for every external classifier call.
// What the classifier decided is the collaborator's business; this core only
// keeps the ledger for compliance and cost tracking.
type AuditService struct {
	identity *IdentityService
	logs     repository.AuditLogRepository
	logger   *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(identity *IdentityService, logs repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{identity: identity, logs: logs, logger: logger}
}

// ClassifierCallInput captures one round-trip to the classifier.
type ClassifierCallInput struct {
	Actor            *ResolveInput
	CommandName      string
	InputPrompt      string
	RawResponse      *string
	TokensUsed       *int
	ProcessingTimeMS *int64
}

// RecordClassifierCall appends the audit row. A failed actor resolution does
// not drop the row; it is written unattributed.
func (s *AuditService) RecordClassifierCall(ctx context.Context, input ClassifierCallInput) (*domain.ClassifierAuditLog, error) {
	if strings.TrimSpace(input.CommandName) == "" {
		return nil, apperrors.NewValidationError("command name is required", nil)
	}

	var userID *string
	if input.Actor != nil {
		profile, err := s.identity.Resolve(ctx, *input.Actor)
		if err != nil {
			s.logger.Warn("could not attribute classifier call", zap.Error(err))
		} else {
			userID = &profile.ID
		}
	}

	log := &domain.ClassifierAuditLog{
		ID:               uuid.NewString(),
		UserID:           userID,
		CommandName:      input.CommandName,
		InputPrompt:      input.InputPrompt,
		RawResponse:      input.RawResponse,
		TokensUsed:       input.TokensUsed,
		ProcessingTimeMS: input.ProcessingTimeMS,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return log, nil
}

// ListRecent returns the newest audit rows.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]domain.ClassifierAuditLog, error) {
	logs, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return logs, nil
}
