package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/domain/selection"
	"github.com/pitchside/lastman/internal/domain/survival"
)

// EligibleTeam is one pickable option for a round, carrying the fixture the
// pick would ride on.
type EligibleTeam struct {
	Team      string
	FixtureID string
	KickoffAt time.Time
	Opponent  string
	Home      bool
}

// EligibilityService answers "which teams can this participant still pick".
// Queries deliberately read through to storage on every call: a stale answer
// here produces picks the acceptance path then rejects.
type EligibilityService struct {
	gameRepo        game.Repository
	participantRepo participant.Repository
	selectionRepo   selection.Repository
	fixtureRepo     fixture.Repository
	loc             *time.Location
	now             func() time.Time
}

func NewEligibilityService(
	gameRepo game.Repository,
	participantRepo participant.Repository,
	selectionRepo selection.Repository,
	fixtureRepo fixture.Repository,
	loc *time.Location,
) *EligibilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &EligibilityService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		selectionRepo:   selectionRepo,
		fixtureRepo:     fixtureRepo,
		loc:             loc,
		now:             time.Now,
	}
}

// EligibleTeamsResult is the full query answer, including whether the draw
// marker is an allowed pick this week.
type EligibleTeamsResult struct {
	WeekStart time.Time
	Teams     []EligibleTeam
	DrawPick  bool
}

// EligibleTeams lists the teams the user can pick for the week containing at.
// A zero at means the current week.
func (s *EligibilityService) EligibleTeams(ctx context.Context, gameID, userID string, at time.Time) (EligibleTeamsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EligibilityService.EligibleTeams")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" {
		return EligibleTeamsResult{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if userID == "" {
		return EligibleTeamsResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return EligibleTeamsResult{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return EligibleTeamsResult{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}

	p, exists, err := s.participantRepo.GetByGameAndUser(ctx, gameID, userID)
	if err != nil {
		return EligibleTeamsResult{}, fmt.Errorf("get participant: %w", err)
	}
	if !exists {
		return EligibleTeamsResult{}, fmt.Errorf("%w: user is not a participant of game=%s", ErrNotFound, gameID)
	}

	if at.IsZero() {
		at = s.now()
	}
	weekStart := MondayOf(at, s.loc)

	fixtures, err := s.weekFixtures(ctx, g, weekStart)
	if err != nil {
		return EligibleTeamsResult{}, err
	}

	history, err := s.selectionRepo.ListByGameAndParticipant(ctx, gameID, p.ID)
	if err != nil {
		return EligibleTeamsResult{}, fmt.Errorf("list selection history: %w", err)
	}
	used := survival.UsedTeams(history)

	teams := make([]EligibleTeam, 0, len(fixtures)*2)
	seen := make(map[string]struct{}, len(fixtures)*2)
	for _, fx := range fixtures {
		for _, side := range []struct {
			team     string
			opponent string
			home     bool
		}{
			{team: fx.HomeTeam, opponent: fx.AwayTeam, home: true},
			{team: fx.AwayTeam, opponent: fx.HomeTeam, home: false},
		} {
			key := survival.NormalizeTeam(side.team)
			if key == "" {
				continue
			}
			if _, taken := used[key]; taken {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			teams = append(teams, EligibleTeam{
				Team:      side.team,
				FixtureID: fx.ID,
				KickoffAt: fx.KickoffAt,
				Opponent:  side.opponent,
				Home:      side.home,
			})
		}
	}

	sort.Slice(teams, func(i, j int) bool {
		return survival.NormalizeTeam(teams[i].Team) < survival.NormalizeTeam(teams[j].Team)
	})

	return EligibleTeamsResult{
		WeekStart: weekStart,
		Teams:     teams,
		DrawPick:  g.IncludeDraws && len(fixtures) > 0,
	}, nil
}

func (s *EligibilityService) weekFixtures(ctx context.Context, g game.Game, weekStart time.Time) ([]fixture.Fixture, error) {
	keys := make([]string, 0, len(g.Competitions))
	for _, c := range g.Competitions {
		keys = append(keys, c.Key())
	}

	fixtures, err := s.fixtureRepo.ListByCompetitionsBetween(ctx, keys, weekStart, WeekEnd(weekStart))
	if err != nil {
		return nil, fmt.Errorf("list week fixtures: %w", err)
	}

	return fixtures, nil
}
