package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/engagement-core/internal/domain"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// In-memory repository fakes mirroring the guarantees of the Postgres
// implementations: atomic upserts, write-once first_seen, guarded session
// close, guarded ticket status update, unique channel binding.

type fakeUserRepo struct {
	mu         sync.Mutex
	byExternal map[string]*domain.UserProfile
	upsertErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byExternal: make(map[string]*domain.UserProfile)}
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}

	now := time.Now().UTC()
	existing, ok := r.byExternal[user.ExternalID]
	if !ok {
		stored := *user
		stored.ID = uuid.NewString()
		stored.FirstSeenAt = now
		stored.LastSeenAt = now
		r.byExternal[user.ExternalID] = &stored
		*user = stored
		return nil
	}

	if user.Username != "" {
		existing.Username = user.Username
	}
	if user.AvatarURL != nil {
		existing.AvatarURL = user.AvatarURL
	}
	if user.GuildJoinedAt != nil {
		existing.GuildJoinedAt = user.GuildJoinedAt
	}
	existing.LastSeenAt = now
	*user = *existing
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byExternal {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byExternal[externalID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.UserProfile, 0, len(r.byExternal))
	for _, user := range r.byExternal {
		result = append(result, *user)
	}
	return result, nil
}

type fakeActivityRepo struct {
	mu        sync.Mutex
	events    []domain.ActivityEvent
	createErr error
}

func (r *fakeActivityRepo) Create(_ context.Context, event *domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeActivityRepo) ListByUserWindow(_ context.Context, userID string, from, to time.Time) ([]domain.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ActivityEvent
	for _, event := range r.events {
		if event.UserID == userID && !event.OccurredAt.Before(from) && event.OccurredAt.Before(to) {
			result = append(result, event)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result, nil
}

func (r *fakeActivityRepo) ListWindow(_ context.Context, from, to time.Time) ([]domain.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ActivityEvent
	for _, event := range r.events {
		if !event.OccurredAt.Before(from) && event.OccurredAt.Before(to) {
			result = append(result, event)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	return result, nil
}

type fakeMemberEventRepo struct {
	mu     sync.Mutex
	events []domain.MemberEvent
}

func (r *fakeMemberEventRepo) Create(_ context.Context, event *domain.MemberEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeMemberEventRepo) ListWindow(_ context.Context, from, to time.Time) ([]domain.MemberEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MemberEvent
	for _, event := range r.events {
		if !event.OccurredAt.Before(from) && event.OccurredAt.Before(to) {
			result = append(result, event)
		}
	}
	return result, nil
}

type fakePresenceRepo struct {
	mu       sync.Mutex
	sessions []domain.PresenceSession
	sweepErr error
}

func (r *fakePresenceRepo) Open(_ context.Context, session *domain.PresenceSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = uuid.NewString()
	r.sessions = append(r.sessions, *session)
	return nil
}

func (r *fakePresenceRepo) FindOpenByUser(_ context.Context, userID string) (*domain.PresenceSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].UserID == userID && r.sessions[i].EndedAt == nil {
			copied := r.sessions[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePresenceRepo) Close(_ context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].ID == sessionID && r.sessions[i].EndedAt == nil {
			r.sessions[i].EndedAt = &endedAt
			r.sessions[i].DurationSeconds = &durationSeconds
			return nil
		}
	}
	return nil
}

func (r *fakePresenceRepo) CloseAllOpen(_ context.Context, endedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sweepErr != nil {
		return 0, r.sweepErr
	}
	var closed int64
	for i := range r.sessions {
		if r.sessions[i].EndedAt != nil {
			continue
		}
		duration := int64(endedAt.Sub(r.sessions[i].StartedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}
		ended := endedAt
		r.sessions[i].EndedAt = &ended
		r.sessions[i].DurationSeconds = &duration
		closed++
	}
	return closed, nil
}

func (r *fakePresenceRepo) ListOverlappingWindow(_ context.Context, from, to time.Time) ([]domain.PresenceSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PresenceSession
	for _, session := range r.sessions {
		if !session.StartedAt.Before(to) {
			continue
		}
		if session.EndedAt != nil && !session.EndedAt.After(from) {
			continue
		}
		result = append(result, session)
	}
	return result, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.ChannelRef == ticket.ChannelRef {
			return apperrors.NewDuplicateChannel(ticket.ChannelRef)
		}
	}
	now := time.Now().UTC()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByChannel(_ context.Context, channelRef string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ChannelRef == channelRef {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListByStatus(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status == status {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, current, next domain.TicketStatus, resolvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != current {
		return pgx.ErrNoRows
	}
	ticket.Status = next
	ticket.UpdatedAt = time.Now().UTC()
	ticket.ResolvedAt = resolvedAt
	return nil
}

type fakeTicketEventRepo struct {
	mu     sync.Mutex
	events []domain.TicketEvent
}

func (r *fakeTicketEventRepo) Create(_ context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeTicketEventRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketEvent
	for _, event := range r.events {
		if event.TicketID == ticketID {
			result = append(result, event)
		}
	}
	return result, nil
}

type fakeAuditLogRepo struct {
	mu   sync.Mutex
	logs []domain.ClassifierAuditLog
}

func (r *fakeAuditLogRepo) Create(_ context.Context, log *domain.ClassifierAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.CreatedAt = time.Now().UTC()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditLogRepo) ListRecent(_ context.Context, limit int) ([]domain.ClassifierAuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.ClassifierAuditLog, len(r.logs))
	copy(result, r.logs)
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}
