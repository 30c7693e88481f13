package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/ingest"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

func TestToEventMapsEveryKind(t *testing.T) {
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	channel := "chan-100"

	tests := []struct {
		name    string
		request IngestEventRequest
		check   func(t *testing.T, event ingest.Event)
	}{
		{
			name:    "message",
			request: IngestEventRequest{Kind: "message", Actor: ActorRef{ExternalID: "ext-1"}, ChannelRef: &channel, OccurredAt: at},
			check: func(t *testing.T, event ingest.Event) {
				posted, ok := event.(ingest.MessagePosted)
				require.True(t, ok)
				assert.Equal(t, "ext-1", posted.Author.ExternalID)
				require.NotNil(t, posted.ChannelRef)
				assert.Equal(t, channel, *posted.ChannelRef)
			},
		},
		{
			name:    "presence change",
			request: IngestEventRequest{Kind: "presence_changed", Actor: ActorRef{ExternalID: "ext-1"}, Previous: "offline", Next: "online", OccurredAt: at},
			check: func(t *testing.T, event ingest.Event) {
				changed, ok := event.(ingest.PresenceChanged)
				require.True(t, ok)
				assert.Equal(t, domain.StatusOffline, changed.Previous)
				assert.Equal(t, domain.StatusOnline, changed.Next)
			},
		},
		{
			name:    "ticket opened",
			request: IngestEventRequest{Kind: "ticket_opened", Actor: ActorRef{ExternalID: "ext-1"}, ChannelRef: &channel, Subject: "help", OccurredAt: at},
			check: func(t *testing.T, event ingest.Event) {
				opened, ok := event.(ingest.TicketOpened)
				require.True(t, ok)
				assert.Equal(t, channel, opened.ChannelRef)
				assert.Equal(t, "help", opened.Subject)
			},
		},
		{
			name:    "ticket advanced",
			request: IngestEventRequest{Kind: "ticket_advanced", Actor: ActorRef{ExternalID: "ext-staff"}, TicketID: "t-1", Target: "RESOLVED", OccurredAt: at},
			check: func(t *testing.T, event ingest.Event) {
				advanced, ok := event.(ingest.TicketAdvanced)
				require.True(t, ok)
				assert.Equal(t, "t-1", advanced.TicketID)
				assert.Equal(t, domain.TicketStatusResolved, advanced.Target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := tt.request.ToEvent()
			require.NoError(t, err)
			tt.check(t, event)
		})
	}
}

func TestToEventUnknownKind(t *testing.T) {
	_, err := IngestEventRequest{Kind: "voice_state"}.ToEvent()
	assert.True(t, apperrors.IsCode(err, "INVALID_EVENT_KIND"))
}

func TestToEventDefaultsOccurredAt(t *testing.T) {
	event, err := IngestEventRequest{Kind: "member_join", Actor: ActorRef{ExternalID: "ext-1"}}.ToEvent()
	require.NoError(t, err)
	joined, ok := event.(ingest.MemberJoined)
	require.True(t, ok)
	assert.False(t, joined.OccurredAt.IsZero())
}
