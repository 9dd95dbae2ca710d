package game

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusOpen      = "open"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// MissedSelectionRule is the policy applied when a participant has no pick at resolution time.
type MissedSelectionRule string

const (
	RuleEliminate            MissedSelectionRule = "Eliminate"
	RuleNextTeamAlphabetical MissedSelectionRule = "NextTeamAlphabetically"
)

// Competition identifies one eligible competition by structured key rather
// than free-text name matching. The pair is validated once at game creation.
type Competition struct {
	CountryCode   string `json:"country_code"`
	CompetitionID string `json:"competition_id"`
}

func (c Competition) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.CountryCode)) + "/" + strings.ToLower(strings.TrimSpace(c.CompetitionID))
}

// Game is one configured survival pool instance.
type Game struct {
	ID               string
	Code             string
	Name             string
	CreatedBy        string
	StartDate        time.Time
	ClosingEntryDate time.Time
	EntryFeePence    int64
	MinPlayers       int
	MaxPlayers       *int
	Competitions     []Competition
	MissedRule       MissedSelectionRule
	IncludeDraws     bool
	Public           bool
	Status           string
	WinnerUserID     *string
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("game name is required")
	}
	if strings.TrimSpace(g.CreatedBy) == "" {
		return fmt.Errorf("game creator is required")
	}
	if g.StartDate.IsZero() {
		return fmt.Errorf("game start date is required")
	}
	if g.StartDate.Weekday() != time.Monday {
		return fmt.Errorf("game start date must be a Monday")
	}
	if !g.ClosingEntryDate.Before(g.StartDate) {
		return fmt.Errorf("closing entry date must precede start date")
	}
	if g.MinPlayers < 2 {
		return fmt.Errorf("minimum players must be at least 2")
	}
	if g.MaxPlayers != nil && *g.MaxPlayers < g.MinPlayers {
		return fmt.Errorf("maximum players must be >= minimum players")
	}
	if len(g.Competitions) == 0 {
		return fmt.Errorf("at least one competition is required")
	}
	for _, c := range g.Competitions {
		if strings.TrimSpace(c.CountryCode) == "" || strings.TrimSpace(c.CompetitionID) == "" {
			return fmt.Errorf("competition entries require country code and competition id")
		}
	}
	switch g.MissedRule {
	case RuleEliminate, RuleNextTeamAlphabetical:
	default:
		return fmt.Errorf("unknown missed selection rule %q", g.MissedRule)
	}
	switch g.Status {
	case StatusOpen, StatusActive, StatusCompleted:
	default:
		return fmt.Errorf("unknown game status %q", g.Status)
	}

	return nil
}

// CompetitionSet returns the configured competitions keyed for lookup.
func (g Game) CompetitionSet() map[string]struct{} {
	out := make(map[string]struct{}, len(g.Competitions))
	for _, c := range g.Competitions {
		out[c.Key()] = struct{}{}
	}
	return out
}
