package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/domain/round"
	"github.com/pitchside/lastman/internal/domain/selection"
	"github.com/pitchside/lastman/internal/domain/survival"
	idgen "github.com/pitchside/lastman/internal/platform/id"
	"github.com/pitchside/lastman/internal/platform/logging"
)

const (
	ResolveStatusResolved = "resolved"
	ResolveStatusSkipped  = "skipped"
	ResolveStatusNotReady = "not_ready"
)

// ResolveRoundResult reports what a single resolver invocation did. Losing a
// claim race or finding the round already resolved is a skipped result, not
// an error.
type ResolveRoundResult struct {
	Status          string
	Message         string
	WeekStart       time.Time
	EliminatedCount int
	Survivors       int
	Completed       bool
	WinnerUserID    *string
}

// ResolverService drives one round of one game from pending to resolved.
// Exactly one concurrent invocation wins the claim; the rest no-op.
type ResolverService struct {
	gameRepo        game.Repository
	participantRepo participant.Repository
	roundRepo       round.Repository
	selectionRepo   selection.Repository
	fixtureRepo     fixture.Repository
	writer          round.ResolutionWriter
	idGen           idgen.Generator
	logger          *logging.Logger
	loc             *time.Location
	claimGrace      time.Duration
	budget          time.Duration
	now             func() time.Time
}

func NewResolverService(
	gameRepo game.Repository,
	participantRepo participant.Repository,
	roundRepo round.Repository,
	selectionRepo selection.Repository,
	fixtureRepo fixture.Repository,
	writer round.ResolutionWriter,
	idGen idgen.Generator,
	logger *logging.Logger,
	loc *time.Location,
	claimGrace time.Duration,
	budget time.Duration,
) *ResolverService {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if claimGrace <= 0 {
		claimGrace = 5 * time.Minute
	}
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &ResolverService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		selectionRepo:   selectionRepo,
		fixtureRepo:     fixtureRepo,
		writer:          writer,
		idGen:           idGen,
		logger:          logger,
		loc:             loc,
		claimGrace:      claimGrace,
		budget:          budget,
		now:             time.Now,
	}
}

// ResolveRound resolves the round of gameID whose week contains weekStart.
func (s *ResolverService) ResolveRound(ctx context.Context, gameID string, weekStart time.Time) (ResolveRoundResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ResolverService.ResolveRound")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return ResolveRoundResult{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if weekStart.IsZero() {
		return ResolveRoundResult{}, fmt.Errorf("%w: week start is required", ErrInvalidInput)
	}
	weekStart = MondayOf(weekStart, s.loc)

	g, exists, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return ResolveRoundResult{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return ResolveRoundResult{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}
	if g.Status == game.StatusCompleted {
		return ResolveRoundResult{
			Status:    ResolveStatusSkipped,
			Message:   "game already completed",
			WeekStart: weekStart,
		}, nil
	}

	rnd, exists, err := s.roundRepo.Get(ctx, gameID, weekStart)
	if err != nil {
		return ResolveRoundResult{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return ResolveRoundResult{}, fmt.Errorf("%w: round game=%s week=%s", ErrNotFound, gameID, round.WeekKey(weekStart))
	}
	if rnd.Status == round.StatusResolved {
		return ResolveRoundResult{
			Status:    ResolveStatusSkipped,
			Message:   "round already resolved",
			WeekStart: weekStart,
		}, nil
	}

	now := s.now().UTC()
	claimed, won, err := s.roundRepo.Claim(ctx, gameID, weekStart, now, now.Add(-s.claimGrace))
	if err != nil {
		return ResolveRoundResult{}, fmt.Errorf("claim round: %w", err)
	}
	if !won {
		return ResolveRoundResult{
			Status:    ResolveStatusSkipped,
			Message:   "round is held by another resolver",
			WeekStart: weekStart,
		}, nil
	}

	result, err := s.resolveClaimed(ctx, g, claimed)
	if err != nil {
		// Best effort: hand the round straight back instead of waiting out
		// the claim grace.
		if releaseErr := s.roundRepo.Release(ctx, claimed.ID); releaseErr != nil {
			s.logger.ErrorContext(ctx, "release claimed round failed",
				"game_id", gameID,
				"round_id", claimed.ID,
				"error", releaseErr,
			)
		}
		return ResolveRoundResult{}, err
	}

	return result, nil
}

func (s *ResolverService) resolveClaimed(ctx context.Context, g game.Game, rnd round.Round) (ResolveRoundResult, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	fixtures, err := s.weekFixtures(lookupCtx, g, rnd.WeekStart)
	if err != nil {
		return ResolveRoundResult{}, err
	}
	fixtureByID := make(map[string]fixture.Fixture, len(fixtures))
	for _, fx := range fixtures {
		fixtureByID[fx.ID] = fx
	}

	active, err := s.participantRepo.ListActiveByGame(ctx, g.ID)
	if err != nil {
		return ResolveRoundResult{}, fmt.Errorf("list active participants: %w", err)
	}

	picks, err := s.selectionRepo.ListByRound(ctx, rnd.ID)
	if err != nil {
		return ResolveRoundResult{}, fmt.Errorf("list round selections: %w", err)
	}
	pickByParticipant := make(map[string]selection.Selection, len(picks))
	for _, pick := range picks {
		pickByParticipant[pick.ParticipantID] = pick
	}

	res := round.Resolution{
		RoundID:             rnd.ID,
		GameID:              g.ID,
		WeekStart:           rnd.WeekStart,
		ResolvedAt:          s.now().UTC(),
		ResultBySelectionID: make(map[string]string),
	}

	// A week with no eligible fixtures resolves as a no-action round rather
	// than treating every participant as a missed pick.
	evaluate := active
	if len(fixtures) == 0 {
		evaluate = nil
	}

	for _, p := range evaluate {
		pick, hasPick := pickByParticipant[p.ID]
		if !hasPick {
			synthetic, eliminated, err := s.applyMissedRule(ctx, g, rnd, p, fixtures)
			if err != nil {
				return ResolveRoundResult{}, err
			}
			if eliminated {
				res.EliminatedParticipantIDs = append(res.EliminatedParticipantIDs, p.ID)
				continue
			}
			pick = synthetic
			res.SyntheticSelections = append(res.SyntheticSelections, synthetic)
		}

		fx, found := fixtureByID[pick.FixtureID]
		if !found {
			return s.notReady(ctx, rnd, fmt.Sprintf("fixture %s missing for selection %s", pick.FixtureID, pick.ID))
		}

		verdict, err := survival.EvaluatePick(pick, fx)
		if err != nil {
			if errors.Is(err, survival.ErrFixtureNotReady) {
				return s.notReady(ctx, rnd, err.Error())
			}
			return ResolveRoundResult{}, fmt.Errorf("evaluate selection %s: %w", pick.ID, err)
		}

		res.ResultBySelectionID[pick.ID] = verdict.Result
		if verdict.Eliminated {
			res.EliminatedParticipantIDs = append(res.EliminatedParticipantIDs, p.ID)
		}
	}

	survivors := len(active) - len(res.EliminatedParticipantIDs)
	if len(fixtures) > 0 && survivors <= 1 {
		res.GameStatus = game.StatusCompleted
		if survivors == 1 {
			winnerID := soleWinnerUserID(active, res.EliminatedParticipantIDs)
			res.WinnerUserID = winnerID
		}
	}

	if err := s.writer.CommitResolution(ctx, res); err != nil {
		return ResolveRoundResult{}, fmt.Errorf("commit resolution: %w", err)
	}

	s.logger.InfoContext(ctx, "round resolved",
		"game_id", g.ID,
		"week_start", round.WeekKey(rnd.WeekStart),
		"eliminated", len(res.EliminatedParticipantIDs),
		"survivors", survivors,
		"completed", res.GameStatus == game.StatusCompleted,
	)

	return ResolveRoundResult{
		Status:          ResolveStatusResolved,
		Message:         "round resolved",
		WeekStart:       rnd.WeekStart,
		EliminatedCount: len(res.EliminatedParticipantIDs),
		Survivors:       survivors,
		Completed:       res.GameStatus == game.StatusCompleted,
		WinnerUserID:    res.WinnerUserID,
	}, nil
}

// applyMissedRule handles a participant who never submitted a pick. Under
// NextTeamAlphabetically a synthetic selection is built from the first
// unused team with a fixture this week; when none remains the participant
// is eliminated, same as under Eliminate.
func (s *ResolverService) applyMissedRule(
	ctx context.Context,
	g game.Game,
	rnd round.Round,
	p participant.Participant,
	fixtures []fixture.Fixture,
) (selection.Selection, bool, error) {
	if g.MissedRule != game.RuleNextTeamAlphabetical {
		return selection.Selection{}, true, nil
	}

	history, err := s.selectionRepo.ListByGameAndParticipant(ctx, g.ID, p.ID)
	if err != nil {
		return selection.Selection{}, false, fmt.Errorf("list selection history: %w", err)
	}
	used := survival.UsedTeams(history)

	type candidate struct {
		team      string
		fixtureID string
	}
	candidates := make([]candidate, 0, len(fixtures)*2)
	for _, fx := range fixtures {
		for _, team := range []string{fx.HomeTeam, fx.AwayTeam} {
			key := survival.NormalizeTeam(team)
			if key == "" {
				continue
			}
			if _, taken := used[key]; taken {
				continue
			}
			candidates = append(candidates, candidate{team: team, fixtureID: fx.ID})
		}
	}
	if len(candidates) == 0 {
		return selection.Selection{}, true, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return survival.NormalizeTeam(candidates[i].team) < survival.NormalizeTeam(candidates[j].team)
	})

	id, err := s.idGen.NewID()
	if err != nil {
		return selection.Selection{}, false, fmt.Errorf("generate synthetic selection id: %w", err)
	}

	return selection.Selection{
		ID:            id,
		GameID:        g.ID,
		RoundID:       rnd.ID,
		ParticipantID: p.ID,
		Team:          candidates[0].team,
		FixtureID:     candidates[0].fixtureID,
		Result:        selection.ResultPending,
		Synthetic:     true,
		SubmittedAt:   s.now().UTC(),
	}, false, nil
}

func (s *ResolverService) notReady(ctx context.Context, rnd round.Round, reason string) (ResolveRoundResult, error) {
	if err := s.roundRepo.Release(ctx, rnd.ID); err != nil {
		return ResolveRoundResult{}, fmt.Errorf("release round after not-ready: %w", err)
	}

	s.logger.InfoContext(ctx, "round not ready",
		"game_id", rnd.GameID,
		"week_start", round.WeekKey(rnd.WeekStart),
		"reason", reason,
	)

	return ResolveRoundResult{
		Status:    ResolveStatusNotReady,
		Message:   reason,
		WeekStart: rnd.WeekStart,
	}, nil
}

func (s *ResolverService) weekFixtures(ctx context.Context, g game.Game, weekStart time.Time) ([]fixture.Fixture, error) {
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

func soleWinnerUserID(active []participant.Participant, eliminatedIDs []string) *string {
	eliminated := make(map[string]struct{}, len(eliminatedIDs))
	for _, id := range eliminatedIDs {
		eliminated[id] = struct{}{}
	}
	for _, p := range active {
		if _, out := eliminated[p.ID]; !out {
			userID := p.UserID
			return &userID
		}
	}
	return nil
}
