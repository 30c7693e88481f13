package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

func TestResolveCreatesOnFirstSight(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewIdentityService(users, zap.NewNop())

	profile, err := svc.Resolve(context.Background(), ResolveInput{ExternalID: "ext-1", Username: "ada"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "ext-1", profile.ExternalID)
	assert.Equal(t, "ada", profile.Username)
	assert.False(t, profile.FirstSeenAt.IsZero())
}

func TestResolveRefreshesMetadataKeepsFirstSeen(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewIdentityService(users, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Resolve(ctx, ResolveInput{ExternalID: "ext-1", Username: "ada"})
	require.NoError(t, err)

	avatar := "https://cdn.example/ada.png"
	joined := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	second, err := svc.Resolve(ctx, ResolveInput{
		ExternalID:    "ext-1",
		Username:      "ada-l",
		AvatarURL:     &avatar,
		GuildJoinedAt: &joined,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ada-l", second.Username)
	require.NotNil(t, second.AvatarURL)
	assert.Equal(t, avatar, *second.AvatarURL)
	assert.Equal(t, first.FirstSeenAt, second.FirstSeenAt)
}

func TestResolveBlankUsernameKeepsStoredName(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewIdentityService(users, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Resolve(ctx, ResolveInput{ExternalID: "ext-1", Username: "ada"})
	require.NoError(t, err)

	profile, err := svc.Resolve(ctx, ResolveInput{ExternalID: "ext-1"})
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
}

func TestResolveRequiresExternalID(t *testing.T) {
	svc := NewIdentityService(newFakeUserRepo(), zap.NewNop())

	_, err := svc.Resolve(context.Background(), ResolveInput{Username: "ghost"})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestResolveConcurrentFirstSightConverges(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewIdentityService(users, zap.NewNop())

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile, err := svc.Resolve(context.Background(), ResolveInput{ExternalID: "ext-race", Username: "racer"})
			if assert.NoError(t, err) {
				ids[i] = profile.ID
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, ids[0])
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	all, err := users.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLookupUnknownIsNotFound(t *testing.T) {
	svc := NewIdentityService(newFakeUserRepo(), zap.NewNop())

	_, err := svc.Lookup(context.Background(), "nobody")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
