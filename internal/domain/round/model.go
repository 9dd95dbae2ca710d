package round

import "time"

const (
	StatusPending   = "pending"
	StatusResolving = "resolving"
	StatusResolved  = "resolved"
)

// Round is one weekly instance of a game. WeekStart is always a Monday at
// midnight in the pool's reference zone; (GameID, WeekStart) is unique.
type Round struct {
	ID         string
	GameID     string
	WeekStart  time.Time
	Status     string
	ClaimedAt  *time.Time
	ResolvedAt *time.Time
}

// WeekKey normalizes a week-start timestamp to its date form for map keys
// and storage comparisons.
func WeekKey(weekStart time.Time) string {
	return weekStart.Format("2006-01-02")
}
