package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/repository"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// Window is a bounded [From, To) time range over which a view is computed.
type Window struct {
	From time.Time
	To   time.Time
}

// LastNDays returns a window covering the n days ending at now.
func LastNDays(n int, now time.Time) Window {
	return Window{From: now.AddDate(0, 0, -n), To: now}
}

// ScoreReport is a user's derived engagement score over a window.
type ScoreReport struct {
	ExternalID string  `json:"external_id"`
	Username   string  `json:"username"`
	IsStaff    bool    `json:"is_staff"`
	Score      float64 `json:"score"`
	EventCount int     `json:"event_count"`
}

// DailyGrowthRow is one calendar day of member churn.
type DailyGrowthRow struct {
	Date   string `json:"date"`
	Joins  int    `json:"joins"`
	Leaves int    `json:"leaves"`
	Net    int    `json:"net"`
}

// PresenceStatsReport aggregates session behavior over a window. Open
// sessions count toward SessionCount and DistinctUsers but are excluded
// from the duration mean.
type PresenceStatsReport struct {
	MeanDurationSeconds float64 `json:"mean_duration_seconds"`
	SessionCount        int     `json:"session_count"`
	DistinctUsers       int     `json:"distinct_users"`
}

// HourlyPresenceRow is the presence coverage fraction for one hour of day.
type HourlyPresenceRow struct {
	Hour     int     `json:"hour"`
	Fraction float64 `json:"fraction"`
}

// RisingStar is one leaderboard row.
type RisingStar struct {
	Username      string  `json:"username"`
	IsStaff       bool    `json:"is_staff"`
	Score         float64 `json:"score"`
	ActivityCount int     `json:"activity_count"`
}

// ChurnRisk is a previously-active member gone silent.
type ChurnRisk struct {
	Username   string    `json:"username"`
	IsStaff    bool      `json:"is_staff"`
	LastActive time.Time `json:"last_active"`
	DaysSilent int       `json:"days_silent"`
}

// ReportDependencies bundles the ledgers the report service reads.
type ReportDependencies struct {
	UserRepo        repository.UserRepository
	ActivityRepo    repository.ActivityRepository
	MemberEventRepo repository.MemberEventRepository
	PresenceRepo    repository.PresenceRepository
	Cache           *ReportCache
	Logger          *zap.Logger
}

// ReportService exposes read-only derived views computed from the ledgers,
// never from cached running counters. Every view degrades to an explicit
// empty result when the window holds zero rows.
type ReportService struct {
	users        repository.UserRepository
	activities   repository.ActivityRepository
	memberEvents repository.MemberEventRepository
	sessions     repository.PresenceRepository
	cache        *ReportCache
	logger       *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		users:        deps.UserRepo,
		activities:   deps.ActivityRepo,
		memberEvents: deps.MemberEventRepo,
		sessions:     deps.PresenceRepo,
		cache:        deps.Cache,
		logger:       deps.Logger,
	}
}

// UserScore sums a user's event weights over the window in stable ledger
// order. An unknown external id fails with NOT_FOUND.
func (s *ReportService) UserScore(ctx context.Context, externalID string, window Window) (ScoreReport, error) {
	user, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScoreReport{}, apperrors.NewNotFound("user", map[string]any{"external_id": externalID})
		}
		return ScoreReport{}, apperrors.NewStoreUnavailable(err)
	}

	events, err := s.activities.ListByUserWindow(ctx, user.ID, window.From, window.To)
	if err != nil {
		return ScoreReport{}, apperrors.NewStoreUnavailable(err)
	}

	report := ScoreReport{ExternalID: user.ExternalID, Username: user.Username, IsStaff: user.IsStaff}
	for _, event := range events {
		report.Score += event.Weight
		report.EventCount++
	}
	return report, nil
}

// DailyNetGrowth returns joins minus leaves per calendar day (UTC) in the
// window, ordered by date. Days with no events are omitted.
func (s *ReportService) DailyNetGrowth(ctx context.Context, window Window) ([]DailyGrowthRow, error) {
	events, err := s.memberEvents.ListWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	byDay := make(map[string]*DailyGrowthRow)
	for _, event := range events {
		day := event.OccurredAt.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &DailyGrowthRow{Date: day}
			byDay[day] = row
		}
		switch event.Kind {
		case domain.MemberJoin:
			row.Joins++
		case domain.MemberLeave:
			row.Leaves++
		}
	}

	result := make([]DailyGrowthRow, 0, len(byDay))
	for _, row := range byDay {
		row.Net = row.Joins - row.Leaves
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

// PresenceStats aggregates sessions overlapping the window.
func (s *ReportService) PresenceStats(ctx context.Context, window Window) (PresenceStatsReport, error) {
	sessions, err := s.sessions.ListOverlappingWindow(ctx, window.From, window.To)
	if err != nil {
		return PresenceStatsReport{}, apperrors.NewStoreUnavailable(err)
	}

	report := PresenceStatsReport{SessionCount: len(sessions)}
	users := make(map[string]struct{})
	var totalSeconds int64
	closed := 0
	for _, session := range sessions {
		users[session.UserID] = struct{}{}
		if session.DurationSeconds != nil {
			totalSeconds += *session.DurationSeconds
			closed++
		}
	}
	report.DistinctUsers = len(users)
	if closed > 0 {
		report.MeanDurationSeconds = float64(totalSeconds) / float64(closed)
	}
	return report, nil
}

// PeakHours returns, for each hour of day, the fraction of that hour a user
// spent in an open non-offline session, averaged over users and days in the
// window. Zero sessions yields all-zero rows, not an error.
func (s *ReportService) PeakHours(ctx context.Context, window Window) ([]HourlyPresenceRow, error) {
	sessions, err := s.sessions.ListOverlappingWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	rows := make([]HourlyPresenceRow, 24)
	for hour := range rows {
		rows[hour].Hour = hour
	}
	if len(sessions) == 0 {
		return rows, nil
	}

	days := int(window.To.Sub(window.From).Hours() / 24)
	if days < 1 {
		days = 1
	}
	users := make(map[string]struct{})
	coverage := make([]float64, 24)
	for _, session := range sessions {
		users[session.UserID] = struct{}{}
		start := session.StartedAt
		end := window.To
		if session.EndedAt != nil {
			end = *session.EndedAt
		}
		if start.Before(window.From) {
			start = window.From
		}
		if end.After(window.To) {
			end = window.To
		}
		accumulateHourCoverage(coverage, start.UTC(), end.UTC())
	}

	denominator := float64(len(users) * days)
	for hour := range rows {
		rows[hour].Fraction = coverage[hour] / denominator
	}
	return rows, nil
}

// accumulateHourCoverage adds, per hour of day, the covered fraction of each
// wall-clock hour in [start, end).
func accumulateHourCoverage(coverage []float64, start, end time.Time) {
	for cursor := start; cursor.Before(end); {
		hourEnd := cursor.Truncate(time.Hour).Add(time.Hour)
		if hourEnd.After(end) {
			hourEnd = end
		}
		coverage[cursor.Hour()] += hourEnd.Sub(cursor).Seconds() / 3600.0
		cursor = hourEnd
	}
}

// RisingStars returns the top members by windowed score. The result is
// served through the TTL-bounded report cache when one is configured; the
// ledgers stay the source of truth.
func (s *ReportService) RisingStars(ctx context.Context, window Window, limit int) ([]RisingStar, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := risingStarsKey(window, limit)
	if s.cache != nil {
		var cached []RisingStar
		if ok := s.cache.Get(ctx, cacheKey, &cached); ok {
			return cached, nil
		}
	}

	activity, err := s.activities.ListWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	result := []RisingStar{}
	if len(activity) > 0 {
		profiles, err := s.users.ListAll(ctx)
		if err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		byID := make(map[string]domain.UserProfile, len(profiles))
		for _, profile := range profiles {
			byID[profile.ID] = profile
		}

		type agg struct {
			score float64
			count int
		}
		byUser := make(map[string]*agg)
		order := []string{}
		for _, event := range activity {
			entry, ok := byUser[event.UserID]
			if !ok {
				entry = &agg{}
				byUser[event.UserID] = entry
				order = append(order, event.UserID)
			}
			entry.score += event.Weight
			entry.count++
		}

		for _, userID := range order {
			profile := byID[userID]
			name := profile.Username
			if name == "" {
				name = "Unknown"
			}
			result = append(result, RisingStar{
				Username:      name,
				IsStaff:       profile.IsStaff,
				Score:         byUser[userID].score,
				ActivityCount: byUser[userID].count,
			})
		}
		sort.SliceStable(result, func(i, j int) bool { return result[i].Score > result[j].Score })
		if len(result) > limit {
			result = result[:limit]
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, result)
	}
	return result, nil
}

// ChurnRisks returns members active within the activity window but silent
// for at least silentThreshold days, most silent first.
func (s *ReportService) ChurnRisks(ctx context.Context, activeWindow Window, silentThresholdDays, limit int, now time.Time) ([]ChurnRisk, error) {
	if limit <= 0 {
		limit = 10
	}

	activity, err := s.activities.ListWindow(ctx, activeWindow.From, activeWindow.To)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if len(activity) == 0 {
		return []ChurnRisk{}, nil
	}

	lastActive := make(map[string]time.Time)
	for _, event := range activity {
		if event.OccurredAt.After(lastActive[event.UserID]) {
			lastActive[event.UserID] = event.OccurredAt
		}
	}

	profiles, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	byID := make(map[string]domain.UserProfile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	cutoff := now.AddDate(0, 0, -silentThresholdDays)
	result := []ChurnRisk{}
	for userID, last := range lastActive {
		if !last.Before(cutoff) {
			continue
		}
		profile := byID[userID]
		name := profile.Username
		if name == "" {
			name = "Unknown"
		}
		result = append(result, ChurnRisk{
			Username:   name,
			IsStaff:    profile.IsStaff,
			LastActive: last,
			DaysSilent: int(now.Sub(last).Hours() / 24),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DaysSilent > result[j].DaysSilent })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func risingStarsKey(window Window, limit int) string {
	return "reports:rising_stars:" + window.From.UTC().Format("2006010215") + ":" + window.To.UTC().Format("2006010215") + ":" + strconv.Itoa(limit)
}
