package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// PresenceRepository stores presence sessions. At most one open session
// (ended_at IS NULL) exists per user; the tracker service enforces this
// through per-user serialization.
type PresenceRepository interface {
	Open(ctx context.Context, session *domain.PresenceSession) error
	// FindOpenByUser returns the user's open session, or nil when none.
	FindOpenByUser(ctx context.Context, userID string) (*domain.PresenceSession, error)
	Close(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
	// CloseAllOpen force-closes every open session in one sweep and returns
	// the number of rows closed. Used by startup reconciliation.
	CloseAllOpen(ctx context.Context, endedAt time.Time) (int64, error)
	// ListOverlappingWindow returns sessions intersecting [from, to).
	ListOverlappingWindow(ctx context.Context, from, to time.Time) ([]domain.PresenceSession, error)
}

type presenceRepository struct {
	pool *pgxpool.Pool
}

// NewPresenceRepository builds repository.
func NewPresenceRepository(pool *pgxpool.Pool) PresenceRepository {
	return &presenceRepository{pool: pool}
}

func (r *presenceRepository) Open(ctx context.Context, session *domain.PresenceSession) error {
	const query = `
        INSERT INTO presence_sessions (user_id, status, started_at)
        VALUES ($1,$2,$3)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		session.UserID,
		session.Status,
		session.StartedAt,
	).Scan(&session.ID)
}

func (r *presenceRepository) FindOpenByUser(ctx context.Context, userID string) (*domain.PresenceSession, error) {
	const query = `
        SELECT id, user_id, status, started_at, ended_at, duration_seconds
        FROM presence_sessions
        WHERE user_id=$1 AND ended_at IS NULL
        ORDER BY started_at DESC
        LIMIT 1`
	var session domain.PresenceSession
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Status,
		&session.StartedAt,
		&session.EndedAt,
		&session.DurationSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *presenceRepository) Close(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	const query = `
        UPDATE presence_sessions SET ended_at=$1, duration_seconds=$2
        WHERE id=$3 AND ended_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, endedAt, durationSeconds, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *presenceRepository) CloseAllOpen(ctx context.Context, endedAt time.Time) (int64, error) {
	const query = `
        UPDATE presence_sessions
        SET ended_at=$1,
            duration_seconds=GREATEST(0, EXTRACT(EPOCH FROM ($1 - started_at))::BIGINT)
        WHERE ended_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, endedAt)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *presenceRepository) ListOverlappingWindow(ctx context.Context, from, to time.Time) ([]domain.PresenceSession, error) {
	const query = `
        SELECT id, user_id, status, started_at, ended_at, duration_seconds
        FROM presence_sessions
        WHERE started_at < $2 AND (ended_at IS NULL OR ended_at > $1)
        ORDER BY started_at ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PresenceSession
	for rows.Next() {
		var session domain.PresenceSession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Status,
			&session.StartedAt,
			&session.EndedAt,
			&session.DurationSeconds,
		); err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}
