package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/config"
	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/observability"
	"github.com/spec-kit/engagement-core/internal/service"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

type activityCall struct {
	externalID string
	kind       domain.ActivityKind
}

type spyScorer struct {
	mu    sync.Mutex
	calls []activityCall
}

func (s *spyScorer) RecordActivity(_ context.Context, actor service.ResolveInput, kind domain.ActivityKind, _ *string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, activityCall{externalID: actor.ExternalID, kind: kind})
	return nil
}

type spyLifecycle struct {
	mu    sync.Mutex
	kinds []domain.MemberEventKind
}

func (s *spyLifecycle) RecordMembership(_ context.Context, _ service.ResolveInput, kind domain.MemberEventKind, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
	return nil
}

type spyPresence struct {
	inFlight   atomic.Int32
	maxOverlap atomic.Int32
	applied    atomic.Int32
}

func (s *spyPresence) ApplyUpdate(_ context.Context, _ service.ResolveInput, _, _ domain.PresenceStatus, _ time.Time) error {
	current := s.inFlight.Add(1)
	for {
		observed := s.maxOverlap.Load()
		if current <= observed || s.maxOverlap.CompareAndSwap(observed, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	s.inFlight.Add(-1)
	s.applied.Add(1)
	return nil
}

type spyTickets struct {
	mu       sync.Mutex
	created  []string
	advanced []string
}

func (s *spyTickets) Create(_ context.Context, _ service.ResolveInput, channelRef, _ string, _ time.Time) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, channelRef)
	return &domain.Ticket{ID: "t-1", ChannelRef: channelRef}, nil
}

func (s *spyTickets) Advance(_ context.Context, ticketID string, _ domain.TicketStatus, _ service.ResolveInput, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanced = append(s.advanced, ticketID)
	return nil
}

type routerFixture struct {
	router    *Router
	scorer    *spyScorer
	lifecycle *spyLifecycle
	presence  *spyPresence
	tickets   *spyTickets
	metrics   *observability.Metrics
}

func newRouterFixture(ignored ...string) *routerFixture {
	f := &routerFixture{
		scorer:    &spyScorer{},
		lifecycle: &spyLifecycle{},
		presence:  &spyPresence{},
		tickets:   &spyTickets{},
		metrics:   observability.NewMetrics(),
	}
	ignoredSet := make(map[string]struct{}, len(ignored))
	for _, id := range ignored {
		ignoredSet[id] = struct{}{}
	}
	f.router = NewRouter(RouterDependencies{
		Scorer:    f.scorer,
		Lifecycle: f.lifecycle,
		Presence:  f.presence,
		Tickets:   f.tickets,
		Tracking:  config.TrackingConfig{IgnoredExternalIDs: ignoredSet},
		Metrics:   f.metrics,
		Logger:    zap.NewNop(),
	})
	return f
}

func TestDispatchRoutesEachKind(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()
	actor := service.ResolveInput{ExternalID: "ext-1"}
	now := time.Now().UTC()

	require.NoError(t, f.router.Dispatch(ctx, MessagePosted{Author: actor, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, ReactionAdded{Author: actor, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, MemberJoined{Member: actor, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, MemberLeft{Member: actor, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, PresenceChanged{Member: actor, Previous: domain.StatusOffline, Next: domain.StatusOnline, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, TicketOpened{Author: actor, ChannelRef: "chan-1", OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, TicketAdvanced{TicketID: "t-1", Target: domain.TicketStatusResolved, Actor: actor, OccurredAt: now}))

	require.Len(t, f.scorer.calls, 2)
	assert.Equal(t, domain.ActivityMessage, f.scorer.calls[0].kind)
	assert.Equal(t, domain.ActivityReaction, f.scorer.calls[1].kind)
	assert.Equal(t, []domain.MemberEventKind{domain.MemberJoin, domain.MemberLeave}, f.lifecycle.kinds)
	assert.Equal(t, int32(1), f.presence.applied.Load())
	assert.Equal(t, []string{"chan-1"}, f.tickets.created)
	assert.Equal(t, []string{"t-1"}, f.tickets.advanced)

	assert.Equal(t, int64(1), f.metrics.EventCount("message"))
	assert.Equal(t, int64(1), f.metrics.EventCount("presence_changed"))
}

func TestDispatchDropsIgnoredMembers(t *testing.T) {
	f := newRouterFixture("bot-1")
	ctx := context.Background()
	bot := service.ResolveInput{ExternalID: "bot-1"}
	now := time.Now().UTC()

	require.NoError(t, f.router.Dispatch(ctx, MessagePosted{Author: bot, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, PresenceChanged{Member: bot, Previous: domain.StatusOffline, Next: domain.StatusOnline, OccurredAt: now}))
	require.NoError(t, f.router.Dispatch(ctx, TicketOpened{Author: bot, ChannelRef: "chan-1", OccurredAt: now}))

	assert.Empty(t, f.scorer.calls)
	assert.Zero(t, f.presence.applied.Load())
	assert.Empty(t, f.tickets.created)
	// the drop is still counted
	assert.Equal(t, int64(1), f.metrics.EventCount("message"))
}

func TestDispatchSerializesPresencePerUser(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()
	member := service.ResolveInput{ExternalID: "ext-1"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.router.Dispatch(ctx, PresenceChanged{Member: member, Previous: domain.StatusOffline, Next: domain.StatusOnline, OccurredAt: time.Now()})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), f.presence.applied.Load())
	assert.Equal(t, int32(1), f.presence.maxOverlap.Load())
}

func TestDispatchUnknownEventKind(t *testing.T) {
	f := newRouterFixture()

	err := f.router.Dispatch(context.Background(), unknownEvent{})
	assert.True(t, apperrors.IsCode(err, "INVALID_EVENT_KIND"))
}

type unknownEvent struct{}

func (unknownEvent) Kind() string { return "unknown" }
