package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/domain/round"
	"github.com/pitchside/lastman/internal/infrastructure/repository/memory"
	"github.com/pitchside/lastman/internal/platform/logging"
)

// testIDGen hands out deterministic sequential IDs.
type testIDGen struct {
	prefix  string
	counter atomic.Int64
}

func newTestIDGen(prefix string) *testIDGen {
	return &testIDGen{prefix: prefix}
}

func (g *testIDGen) NewID() (string, error) {
	return fmt.Sprintf("%s-%04d", g.prefix, g.counter.Add(1)), nil
}

func (g *testIDGen) NewCode() (string, error) {
	return fmt.Sprintf("CODE%04d", g.counter.Add(1)), nil
}

// Fixed timeline used across engine tests: the round week starts Monday
// 2026-03-02 UTC, fixtures kick off the following Saturday.
var (
	testWeekStart = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	testSaturday  = time.Date(2026, time.March, 7, 15, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

type engineWorld struct {
	games        *memory.GameRepository
	participants *memory.ParticipantRepository
	rounds       *memory.RoundRepository
	selections   *memory.SelectionRepository
	fixtures     *memory.FixtureRepository
	writer       *memory.ResolutionWriter
	idGen        *testIDGen

	game  game.Game
	round round.Round
	alice participant.Participant
	bob   participant.Participant
	cara  participant.Participant
}

type engineWorldConfig struct {
	includeDraws bool
	missedRule   game.MissedSelectionRule
	participants int
	// eliminated lists user IDs knocked out in an earlier week.
	eliminated []string
}

// newEngineWorld builds an active game with a pending round for the test
// week and two scheduled fixtures.
func newEngineWorld(cfg engineWorldConfig) *engineWorld {
	if cfg.missedRule == "" {
		cfg.missedRule = game.RuleEliminate
	}
	if cfg.participants == 0 {
		cfg.participants = 3
	}

	g := game.Game{
		ID:               "game-1",
		Code:             "TESTPOOL",
		Name:             "Test Pool",
		CreatedBy:        "user-alice",
		StartDate:        testWeekStart,
		ClosingEntryDate: testWeekStart.AddDate(0, 0, -1),
		MinPlayers:       2,
		Competitions: []game.Competition{
			{CountryCode: "GB", CompetitionID: "premier-league"},
		},
		MissedRule:   cfg.missedRule,
		IncludeDraws: cfg.includeDraws,
		Public:       true,
		Status:       game.StatusActive,
	}

	joined := testWeekStart.AddDate(0, 0, -3)
	people := []participant.Participant{
		{ID: "part-alice", GameID: g.ID, UserID: "user-alice", JoinedAt: joined},
		{ID: "part-bob", GameID: g.ID, UserID: "user-bob", JoinedAt: joined},
		{ID: "part-cara", GameID: g.ID, UserID: "user-cara", JoinedAt: joined},
	}
	people = people[:cfg.participants]
	for _, userID := range cfg.eliminated {
		for i := range people {
			if people[i].UserID == userID {
				week := testWeekStart.AddDate(0, 0, -7)
				people[i].Eliminated = true
				people[i].EliminatedWeek = &week
			}
		}
	}

	rnd := round.Round{
		ID:        "round-1",
		GameID:    g.ID,
		WeekStart: testWeekStart,
		Status:    round.StatusPending,
	}

	fixtures := []fixture.Fixture{
		{
			ID:            "fx-ars-liv",
			CountryCode:   "GB",
			CompetitionID: "premier-league",
			HomeTeam:      "Arsenal",
			AwayTeam:      "Liverpool",
			KickoffAt:     testSaturday,
			Status:        fixture.StatusScheduled,
		},
		{
			ID:            "fx-eve-ful",
			CountryCode:   "GB",
			CompetitionID: "premier-league",
			HomeTeam:      "Everton",
			AwayTeam:      "Fulham",
			KickoffAt:     testSaturday.Add(2 * time.Hour),
			Status:        fixture.StatusScheduled,
		},
	}

	world := &engineWorld{
		games:        memory.NewGameRepository([]game.Game{g}),
		participants: memory.NewParticipantRepository(people),
		rounds:       memory.NewRoundRepository([]round.Round{rnd}),
		selections:   memory.NewSelectionRepository(),
		fixtures:     memory.NewFixtureRepository(fixtures),
		idGen:        newTestIDGen("id"),
		game:         g,
		round:        rnd,
		alice:        people[0],
	}
	if len(people) > 1 {
		world.bob = people[1]
	}
	if len(people) > 2 {
		world.cara = people[2]
	}
	world.writer = memory.NewResolutionWriter(world.games, world.participants, world.rounds, world.selections)

	return world
}

func (w *engineWorld) newResolver(now time.Time) *ResolverService {
	resolver := NewResolverService(
		w.games,
		w.participants,
		w.rounds,
		w.selections,
		w.fixtures,
		w.writer,
		w.idGen,
		logging.NewNop(),
		time.UTC,
		5*time.Minute,
		30*time.Second,
	)
	resolver.now = func() time.Time { return now }
	return resolver
}

func (w *engineWorld) newSelectionService(now time.Time) *SelectionService {
	svc := NewSelectionService(
		w.games,
		w.participants,
		w.rounds,
		w.selections,
		w.fixtures,
		w.idGen,
		time.UTC,
	)
	svc.now = func() time.Time { return now }
	return svc
}

func (w *engineWorld) newEligibilityService(now time.Time) *EligibilityService {
	svc := NewEligibilityService(
		w.games,
		w.participants,
		w.selections,
		w.fixtures,
		time.UTC,
	)
	svc.now = func() time.Time { return now }
	return svc
}

// finishFixture records a final score on a seeded fixture.
func (w *engineWorld) finishFixture(fixtureID string, home, away int) {
	w.setFixtureState(fixtureID, fixture.StatusCompleted, &home, &away)
}

func (w *engineWorld) setFixtureState(fixtureID, status string, home, away *int) {
	ctx := context.Background()
	fx, ok, _ := w.fixtures.GetByID(ctx, fixtureID)
	if !ok {
		panic("unknown fixture " + fixtureID)
	}
	fx.Status = status
	fx.HomeScore = home
	fx.AwayScore = away
	_, _ = w.fixtures.Upsert(ctx, []fixture.Fixture{fx})
}
