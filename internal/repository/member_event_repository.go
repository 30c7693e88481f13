package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// MemberEventRepository stores the append-only lifecycle ledger.
type MemberEventRepository interface {
	Create(ctx context.Context, event *domain.MemberEvent) error
	ListWindow(ctx context.Context, from, to time.Time) ([]domain.MemberEvent, error)
}

type memberEventRepository struct {
	pool *pgxpool.Pool
}

// NewMemberEventRepository builds repository.
func NewMemberEventRepository(pool *pgxpool.Pool) MemberEventRepository {
	return &memberEventRepository{pool: pool}
}

func (r *memberEventRepository) Create(ctx context.Context, event *domain.MemberEvent) error {
	const query = `
        INSERT INTO member_events (user_id, kind, occurred_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.UserID,
		event.Kind,
		event.OccurredAt,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *memberEventRepository) ListWindow(ctx context.Context, from, to time.Time) ([]domain.MemberEvent, error) {
	const query = `
        SELECT id, user_id, kind, occurred_at, created_at
        FROM member_events
        WHERE occurred_at >= $1 AND occurred_at < $2
        ORDER BY occurred_at ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MemberEvent
	for rows.Next() {
		var event domain.MemberEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Kind,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
