package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/domain/round"
	"github.com/pitchside/lastman/internal/domain/selection"
	"github.com/pitchside/lastman/internal/domain/survival"
	idgen "github.com/pitchside/lastman/internal/platform/id"
)

type SubmitSelectionInput struct {
	GameID string
	UserID string
	Team   string
	// FixtureID names the match a DRAW pick rides on. Team picks derive
	// their fixture from the team and may leave it empty.
	FixtureID string
	// At anchors the target week; zero means now.
	At time.Time
}

// SelectionService accepts weekly picks. Validation order is fixed: the
// round must be open (cutoff not passed, status pending), then the
// participant must still be alive, then pick-type legality, then fixture
// eligibility, then the repeat-pick check. The first failure wins so callers
// see a stable error for a given state.
type SelectionService struct {
	gameRepo        game.Repository
	participantRepo participant.Repository
	roundRepo       round.Repository
	selectionRepo   selection.Repository
	fixtureRepo     fixture.Repository
	idGen           idgen.Generator
	loc             *time.Location
	now             func() time.Time
}

func NewSelectionService(
	gameRepo game.Repository,
	participantRepo participant.Repository,
	roundRepo round.Repository,
	selectionRepo selection.Repository,
	fixtureRepo fixture.Repository,
	idGen idgen.Generator,
	loc *time.Location,
) *SelectionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SelectionService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		selectionRepo:   selectionRepo,
		fixtureRepo:     fixtureRepo,
		idGen:           idGen,
		loc:             loc,
		now:             time.Now,
	}
}

// SubmitSelection validates and records the user's pick for the week.
// Resubmitting before the cutoff replaces the previous pick.
func (s *SelectionService) SubmitSelection(ctx context.Context, input SubmitSelectionInput) (selection.Selection, error) {
	ctx, span := startUsecaseSpan(ctx, "SelectionService.SubmitSelection")
	defer span.End()

	input.GameID = strings.TrimSpace(input.GameID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Team = strings.TrimSpace(input.Team)
	if input.GameID == "" {
		return selection.Selection{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return selection.Selection{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Team == "" {
		return selection.Selection{}, fmt.Errorf("%w: team is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		return selection.Selection{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return selection.Selection{}, fmt.Errorf("%w: game=%s", ErrNotFound, input.GameID)
	}
	if g.Status == game.StatusCompleted {
		return selection.Selection{}, fmt.Errorf("%w: game is completed", survival.ErrRoundClosed)
	}

	p, exists, err := s.participantRepo.GetByGameAndUser(ctx, input.GameID, input.UserID)
	if err != nil {
		return selection.Selection{}, fmt.Errorf("get participant: %w", err)
	}
	if !exists {
		return selection.Selection{}, fmt.Errorf("%w: user is not a participant of game=%s", ErrNotFound, input.GameID)
	}

	at := input.At
	if at.IsZero() {
		at = s.now()
	}
	weekStart := MondayOf(at, s.loc)

	fixtures, err := s.weekFixtures(ctx, g, weekStart)
	if err != nil {
		return selection.Selection{}, err
	}
	if len(fixtures) == 0 {
		return selection.Selection{}, fmt.Errorf("%w: no fixtures scheduled this week", survival.ErrTeamNotEligible)
	}

	// 1. The round must be open: the cutoff is the earliest kickoff of the
	// week, and the round itself must still be pending.
	cutoff := fixtures[0].KickoffAt
	for _, fx := range fixtures[1:] {
		if fx.KickoffAt.Before(cutoff) {
			cutoff = fx.KickoffAt
		}
	}
	if !s.now().Before(cutoff) {
		return selection.Selection{}, fmt.Errorf("%w: cutoff was %s", survival.ErrCutoffPassed, cutoff.Format(time.RFC3339))
	}

	rnd, err := s.ensureRound(ctx, g.ID, weekStart)
	if err != nil {
		return selection.Selection{}, err
	}
	if rnd.Status != round.StatusPending {
		return selection.Selection{}, survival.ErrRoundClosed
	}

	// 2. The participant must still be alive.
	if p.Eliminated {
		return selection.Selection{}, survival.ErrParticipantEliminated
	}

	isDraw := strings.EqualFold(input.Team, selection.TeamDraw)

	// 3. Draw picks are only legal when the game includes draws.
	if isDraw && !g.IncludeDraws {
		return selection.Selection{}, survival.ErrDrawPickDisabled
	}

	// 4. The pick must ride on a fixture in the configured competitions: a
	// team pick derives it from the team, a draw pick names it explicitly.
	var fixtureID string
	if isDraw {
		input.FixtureID = strings.TrimSpace(input.FixtureID)
		if input.FixtureID == "" {
			return selection.Selection{}, fmt.Errorf("%w: draw picks require a fixture id", ErrInvalidInput)
		}
		if _, found := findFixtureByID(fixtures, input.FixtureID); !found {
			return selection.Selection{}, fmt.Errorf("%w: fixture=%s is not part of this week", survival.ErrTeamNotEligible, input.FixtureID)
		}
		fixtureID = input.FixtureID
	} else {
		fx, found := findTeamFixture(fixtures, input.Team)
		if !found {
			return selection.Selection{}, fmt.Errorf("%w: team=%s has no fixture this week", survival.ErrTeamNotEligible, input.Team)
		}
		fixtureID = fx.ID
	}

	// 5. A team may only ever be picked once per participant per game.
	if !isDraw {
		history, err := s.selectionRepo.ListByGameAndParticipant(ctx, g.ID, p.ID)
		if err != nil {
			return selection.Selection{}, fmt.Errorf("list selection history: %w", err)
		}
		used := survival.UsedTeams(historyExcludingRound(history, rnd.ID))
		if _, taken := used[survival.NormalizeTeam(input.Team)]; taken {
			return selection.Selection{}, fmt.Errorf("%w: team=%s", survival.ErrRepeatPick, input.Team)
		}
	}

	pick := selection.Selection{
		GameID:        g.ID,
		RoundID:       rnd.ID,
		ParticipantID: p.ID,
		Team:          input.Team,
		FixtureID:     fixtureID,
		Result:        selection.ResultPending,
		SubmittedAt:   s.now().UTC(),
	}

	if existing, found, err := s.selectionRepo.GetByParticipantAndRound(ctx, p.ID, rnd.ID); err != nil {
		return selection.Selection{}, fmt.Errorf("get existing selection: %w", err)
	} else if found {
		pick.ID = existing.ID
	} else {
		id, err := s.idGen.NewID()
		if err != nil {
			return selection.Selection{}, fmt.Errorf("generate selection id: %w", err)
		}
		pick.ID = id
	}

	if err := s.selectionRepo.Upsert(ctx, pick); err != nil {
		return selection.Selection{}, fmt.Errorf("upsert selection: %w", err)
	}

	return pick, nil
}

// SelectionHistory returns the participant's picks for a game, oldest first.
func (s *SelectionService) SelectionHistory(ctx context.Context, gameID, userID string) ([]selection.Selection, error) {
	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	p, exists, err := s.participantRepo.GetByGameAndUser(ctx, gameID, userID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user is not a participant of game=%s", ErrNotFound, gameID)
	}

	history, err := s.selectionRepo.ListByGameAndParticipant(ctx, gameID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list selection history: %w", err)
	}

	return history, nil
}

func (s *SelectionService) ensureRound(ctx context.Context, gameID string, weekStart time.Time) (round.Round, error) {
	rnd, exists, err := s.roundRepo.Get(ctx, gameID, weekStart)
	if err != nil {
		return round.Round{}, fmt.Errorf("get round: %w", err)
	}
	if exists {
		return rnd, nil
	}

	// The scheduler normally materializes rounds; a missing row here just
	// means a pick arrived first.
	id, err := s.idGen.NewID()
	if err != nil {
		return round.Round{}, fmt.Errorf("generate round id: %w", err)
	}
	created := round.Round{
		ID:        id,
		GameID:    gameID,
		WeekStart: weekStart,
		Status:    round.StatusPending,
	}
	if _, err := s.roundRepo.CreateIfAbsent(ctx, created); err != nil {
		return round.Round{}, fmt.Errorf("create round: %w", err)
	}

	rnd, exists, err = s.roundRepo.Get(ctx, gameID, weekStart)
	if err != nil {
		return round.Round{}, fmt.Errorf("get round after create: %w", err)
	}
	if !exists {
		return round.Round{}, fmt.Errorf("round vanished after create: game=%s week=%s", gameID, round.WeekKey(weekStart))
	}

	return rnd, nil
}

func (s *SelectionService) weekFixtures(ctx context.Context, g game.Game, weekStart time.Time) ([]fixture.Fixture, error) {
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

func findFixtureByID(fixtures []fixture.Fixture, fixtureID string) (fixture.Fixture, bool) {
	for _, fx := range fixtures {
		if fx.ID == fixtureID {
			return fx, true
		}
	}
	return fixture.Fixture{}, false
}

func findTeamFixture(fixtures []fixture.Fixture, team string) (fixture.Fixture, bool) {
	for _, fx := range fixtures {
		if fx.Involves(team) {
			return fx, true
		}
	}
	return fixture.Fixture{}, false
}

// historyExcludingRound drops the current round so resubmission does not
// collide with the pick being replaced.
func historyExcludingRound(history []selection.Selection, roundID string) []selection.Selection {
	out := make([]selection.Selection, 0, len(history))
	for _, s := range history {
		if s.RoundID == roundID {
			continue
		}
		out = append(out, s)
	}
	return out
}
