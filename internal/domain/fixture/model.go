package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusPostponed = "postponed"
	StatusVoid      = "void"
)

// Fixture is one scheduled match, owned by the upstream data feed and
// read-only to the round engine once concluded.
type Fixture struct {
	ID            string
	CountryCode   string
	CompetitionID string
	Season        string
	HomeTeam      string
	AwayTeam      string
	KickoffAt     time.Time
	Status        string
	HomeScore     *int
	AwayScore     *int
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	switch status {
	case "ns", "tbd", "not_started":
		return StatusScheduled
	case "ft", "aet", "finished", "full_time":
		return StatusCompleted
	case "pst", "postp":
		return StatusPostponed
	case "canc", "cancelled", "abandoned", "awarded":
		return StatusVoid
	}
	return status
}

func (f Fixture) Involves(team string) bool {
	return strings.EqualFold(f.HomeTeam, team) || strings.EqualFold(f.AwayTeam, team)
}

// HasResult reports whether the fixture carries a final score.
func (f Fixture) HasResult() bool {
	return NormalizeStatus(f.Status) == StatusCompleted && f.HomeScore != nil && f.AwayScore != nil
}

func (f Fixture) IsVoidLike() bool {
	switch NormalizeStatus(f.Status) {
	case StatusPostponed, StatusVoid:
		return true
	default:
		return false
	}
}

// CompetitionKey matches game.Competition.Key() so configured competitions
// and fixture rows compare on the same structured key.
func (f Fixture) CompetitionKey() string {
	return strings.ToUpper(strings.TrimSpace(f.CountryCode)) + "/" + strings.ToLower(strings.TrimSpace(f.CompetitionID))
}
