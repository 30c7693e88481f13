package domain

import "time"

// ActivityKind enumerates scored engagement actions.
type ActivityKind string

const (
	ActivityMessage  ActivityKind = "message"
	ActivityReaction ActivityKind = "reaction"
)

// activityWeights is the fixed point table. A user's total score is always
// the sum of weights over their events, computed at query time and never
// materialized.
var activityWeights = map[ActivityKind]float64{
	ActivityMessage:  1.0,
	ActivityReaction: 0.5,
}

// WeightFor returns the fixed weight for a kind. The second return is false
// for kinds outside the closed set.
func WeightFor(kind ActivityKind) (float64, bool) {
	weight, ok := activityWeights[kind]
	return weight, ok
}

// ActivityEvent is one scored engagement action. Immutable once written.
type ActivityEvent struct {
	ID         string
	UserID     string
	Kind       ActivityKind
	Weight     float64
	ChannelRef *string
	OccurredAt time.Time
	CreatedAt  time.Time
}
