package domain

import "time"

// PresenceStatus enumerates platform presence states. Offline is never a
// session status; it only delimits sessions.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusIdle    PresenceStatus = "idle"
	StatusDnd     PresenceStatus = "dnd"
	StatusOffline PresenceStatus = "offline"
)

// Trackable reports whether status can label an open session.
func (s PresenceStatus) Trackable() bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDnd:
		return true
	}
	return false
}

// PresenceSession is one contiguous interval of a single non-offline status.
// EndedAt and DurationSeconds are set together, exactly once, at close.
type PresenceSession struct {
	ID              string
	UserID          string
	Status          PresenceStatus
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds *int64
}

// Duration returns the closed session length, or elapsed-so-far for an open
// session as of now.
func (s PresenceSession) Duration(now time.Time) time.Duration {
	if s.DurationSeconds != nil {
		return time.Duration(*s.DurationSeconds) * time.Second
	}
	return now.Sub(s.StartedAt)
}

// SessionState is the tagged per-user tracker state: NoSession or
// Open(status, startedAt). A "closed session missing its end time" is
// unrepresentable here.
type SessionState struct {
	open      bool
	status    PresenceStatus
	startedAt time.Time
}

// NoSession is the state of a user with no open session.
func NoSession() SessionState {
	return SessionState{}
}

// OpenSession is the state of a user with one open session.
func OpenSession(status PresenceStatus, startedAt time.Time) SessionState {
	return SessionState{open: true, status: status, startedAt: startedAt}
}

// IsOpen reports whether a session is open.
func (s SessionState) IsOpen() bool { return s.open }

// Status returns the open session's status; only meaningful when IsOpen.
func (s SessionState) Status() PresenceStatus { return s.status }

// StartedAt returns the open session's start; only meaningful when IsOpen.
func (s SessionState) StartedAt() time.Time { return s.startedAt }

// TransitionPlan describes the session boundaries a presence update produces.
// A lateral status change (online -> idle) closes and opens, yielding two
// boundaries, not one.
type TransitionPlan struct {
	CloseOpen  bool
	OpenNew    bool
	OpenStatus PresenceStatus
}

// PlanTransition maps a (previous, new) status pair onto session boundaries
// given the current tracker state. A pair with previous == new is a
// defensive no-op regardless of state.
func PlanTransition(previous, next PresenceStatus, state SessionState) TransitionPlan {
	if previous == next {
		return TransitionPlan{}
	}
	if next == StatusOffline {
		return TransitionPlan{CloseOpen: state.IsOpen()}
	}
	if !next.Trackable() {
		return TransitionPlan{}
	}
	if previous == StatusOffline {
		// Close first if an open session was left behind by a missed
		// offline event; a user never has two open sessions.
		return TransitionPlan{CloseOpen: state.IsOpen(), OpenNew: true, OpenStatus: next}
	}
	return TransitionPlan{CloseOpen: state.IsOpen(), OpenNew: true, OpenStatus: next}
}
