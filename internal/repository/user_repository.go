package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/engagement-core/internal/domain"
)

// UserRepository defines persistence access for member profiles.
type UserRepository interface {
	// Upsert atomically creates the profile on first sight or refreshes its
	// mutable metadata, filling the struct from the stored row either way.
	Upsert(ctx context.Context, user *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.UserProfile, error)
	ListAll(ctx context.Context) ([]domain.UserProfile, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.UserProfile) error {
	const query = `
        INSERT INTO users (external_id, username, avatar_url, guild_joined_at, last_seen_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (external_id) DO UPDATE SET
            username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
            avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
            guild_joined_at = COALESCE(users.guild_joined_at, EXCLUDED.guild_joined_at),
            last_seen_at = NOW()
        RETURNING id, external_id, username, avatar_url, is_staff, guild_joined_at, first_seen_at, last_seen_at`

	return r.pool.QueryRow(ctx, query,
		user.ExternalID,
		user.Username,
		user.AvatarURL,
		user.GuildJoinedAt,
	).Scan(
		&user.ID,
		&user.ExternalID,
		&user.Username,
		&user.AvatarURL,
		&user.IsStaff,
		&user.GuildJoinedAt,
		&user.FirstSeenAt,
		&user.LastSeenAt,
	)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	const query = `
        SELECT id, external_id, username, avatar_url, is_staff, guild_joined_at, first_seen_at, last_seen_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.UserProfile, error) {
	const query = `
        SELECT id, external_id, username, avatar_url, is_staff, guild_joined_at, first_seen_at, last_seen_at
        FROM users WHERE external_id=$1`
	return r.fetchSingle(ctx, query, externalID)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.ExternalID,
		&user.Username,
		&user.AvatarURL,
		&user.IsStaff,
		&user.GuildJoinedAt,
		&user.FirstSeenAt,
		&user.LastSeenAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	const query = `
        SELECT id, external_id, username, avatar_url, is_staff, guild_joined_at, first_seen_at, last_seen_at
        FROM users ORDER BY first_seen_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]domain.UserProfile, error) {
	var result []domain.UserProfile
	for rows.Next() {
		var user domain.UserProfile
		if err := rows.Scan(
			&user.ID,
			&user.ExternalID,
			&user.Username,
			&user.AvatarURL,
			&user.IsStaff,
			&user.GuildJoinedAt,
			&user.FirstSeenAt,
			&user.LastSeenAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
