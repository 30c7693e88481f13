package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// AuditLogRepository stores classifier-call audit rows.
type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.ClassifierAuditLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.ClassifierAuditLog, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Create(ctx context.Context, log *domain.ClassifierAuditLog) error {
	const query = `
        INSERT INTO ai_audit_logs (id, user_id, command_name, input_prompt, raw_response, tokens_used, processing_time_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		log.ID,
		log.UserID,
		log.CommandName,
		log.InputPrompt,
		log.RawResponse,
		log.TokensUsed,
		log.ProcessingTimeMS,
	).Scan(&log.CreatedAt)
}

func (r *auditLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.ClassifierAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, command_name, input_prompt, raw_response, tokens_used, processing_time_ms, created_at
        FROM ai_audit_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ClassifierAuditLog
	for rows.Next() {
		var log domain.ClassifierAuditLog
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.CommandName,
			&log.InputPrompt,
			&log.RawResponse,
			&log.TokensUsed,
			&log.ProcessingTimeMS,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}
