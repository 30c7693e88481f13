package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// ActivityRepository stores the append-only engagement ledger.
type ActivityRepository interface {
	Create(ctx context.Context, event *domain.ActivityEvent) error
	// ListByUserWindow returns a user's events within [from, to), ordered by
	// occurred_at so query-time sums are stable.
	ListByUserWindow(ctx context.Context, userID string, from, to time.Time) ([]domain.ActivityEvent, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]domain.ActivityEvent, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, event *domain.ActivityEvent) error {
	const query = `
        INSERT INTO activity_events (user_id, kind, weight, channel_ref, occurred_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.UserID,
		event.Kind,
		event.Weight,
		event.ChannelRef,
		event.OccurredAt,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *activityRepository) ListByUserWindow(ctx context.Context, userID string, from, to time.Time) ([]domain.ActivityEvent, error) {
	const query = `
        SELECT id, user_id, kind, weight, channel_ref, occurred_at, created_at
        FROM activity_events
        WHERE user_id=$1 AND occurred_at >= $2 AND occurred_at < $3
        ORDER BY occurred_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEvents(rows)
}

func (r *activityRepository) ListWindow(ctx context.Context, from, to time.Time) ([]domain.ActivityEvent, error) {
	const query = `
        SELECT id, user_id, kind, weight, channel_ref, occurred_at, created_at
        FROM activity_events
        WHERE occurred_at >= $1 AND occurred_at < $2
        ORDER BY occurred_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEvents(rows)
}

func scanActivityEvents(rows pgx.Rows) ([]domain.ActivityEvent, error) {
	var result []domain.ActivityEvent
	for rows.Next() {
		var event domain.ActivityEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Kind,
			&event.Weight,
			&event.ChannelRef,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
