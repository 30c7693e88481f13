package domain

import "time"

// UserProfile is the root record for a community member. Created lazily on
// first sight via the identity resolver; never deleted (children cascade on
// purge).
type UserProfile struct {
	ID            string
	ExternalID    string
	Username      string
	AvatarURL     *string
	IsStaff       bool
	GuildJoinedAt *time.Time
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}
