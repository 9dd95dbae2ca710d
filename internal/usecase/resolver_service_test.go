package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/round"
	"github.com/pitchside/lastman/internal/domain/selection"
)

// resolveTime is after every test fixture has kicked off.
var resolveTime = testSaturday.AddDate(0, 0, 2)

func submitPick(t *testing.T, w *engineWorld, participantID, team, fixtureID string) selection.Selection {
	t.Helper()

	pick := selection.Selection{
		ID:            "sel-" + participantID + "-" + team,
		GameID:        w.game.ID,
		RoundID:       w.round.ID,
		ParticipantID: participantID,
		Team:          team,
		FixtureID:     fixtureID,
		SubmittedAt:   testWeekStart.Add(time.Hour),
	}
	if err := w.selections.Upsert(context.Background(), pick); err != nil {
		t.Fatalf("seed selection: %v", err)
	}
	return pick
}

func TestResolverService_WinSurvivesLossEliminates(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{})
	// Arsenal 2-0 Liverpool, Everton 1-3 Fulham.
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 1, 3)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Liverpool", "fx-ars-liv")
	submitPick(t, w, w.cara.ID, "Fulham", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("unexpected status: %s (%s)", result.Status, result.Message)
	}
	if result.EliminatedCount != 1 {
		t.Fatalf("expected 1 elimination, got %d", result.EliminatedCount)
	}
	if result.Survivors != 2 {
		t.Fatalf("expected 2 survivors, got %d", result.Survivors)
	}

	bob, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-bob")
	if !bob.Eliminated {
		t.Fatalf("expected bob eliminated")
	}
	if bob.EliminatedWeek == nil || !bob.EliminatedWeek.Equal(testWeekStart) {
		t.Fatalf("expected elimination week recorded as %s", testWeekStart)
	}

	alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
	if alice.Eliminated {
		t.Fatalf("expected alice to survive")
	}
}

func TestResolverService_DrawEliminatesTeamPick(t *testing.T) {
	t.Parallel()

	for _, includeDraws := range []bool{false, true} {
		includeDraws := includeDraws
		name := "include_draws=false"
		if includeDraws {
			name = "include_draws=true"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			w := newEngineWorld(engineWorldConfig{includeDraws: includeDraws, participants: 2})
			w.finishFixture("fx-ars-liv", 1, 1)
			w.finishFixture("fx-eve-ful", 2, 0)

			submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
			submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")

			resolver := w.newResolver(resolveTime)
			result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
			if err != nil {
				t.Fatalf("resolve round: %v", err)
			}
			if result.Status != ResolveStatusResolved {
				t.Fatalf("unexpected status: %s", result.Status)
			}

			// A drawn match is a loss for a team pick regardless of the flag.
			alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
			if !alice.Eliminated {
				t.Fatalf("expected alice eliminated on a drawn match")
			}
		})
	}
}

func TestResolverService_DrawPickMatrix(t *testing.T) {
	t.Parallel()

	t.Run("draw pick survives a drawn match", func(t *testing.T) {
		t.Parallel()

		w := newEngineWorld(engineWorldConfig{includeDraws: true})
		w.finishFixture("fx-ars-liv", 1, 1)
		w.finishFixture("fx-eve-ful", 2, 0)

		submitPick(t, w, w.alice.ID, selection.TeamDraw, "fx-ars-liv")
		submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")
		submitPick(t, w, w.cara.ID, "Fulham", "fx-eve-ful")

		resolver := w.newResolver(resolveTime)
		if _, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart); err != nil {
			t.Fatalf("resolve round: %v", err)
		}

		alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
		if alice.Eliminated {
			t.Fatalf("expected draw pick to survive a drawn match")
		}
	})

	t.Run("draw pick eliminated when either side wins", func(t *testing.T) {
		t.Parallel()

		w := newEngineWorld(engineWorldConfig{includeDraws: true})
		w.finishFixture("fx-ars-liv", 3, 1)
		w.finishFixture("fx-eve-ful", 2, 0)

		submitPick(t, w, w.alice.ID, selection.TeamDraw, "fx-ars-liv")
		submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")
		submitPick(t, w, w.cara.ID, "Arsenal", "fx-ars-liv")

		resolver := w.newResolver(resolveTime)
		if _, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart); err != nil {
			t.Fatalf("resolve round: %v", err)
		}

		alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
		if !alice.Eliminated {
			t.Fatalf("expected draw pick eliminated on a decided match")
		}
	})
}

func TestResolverService_VoidFixtureRefundsPick(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{})
	w.setFixtureState("fx-ars-liv", fixture.StatusPostponed, nil, nil)
	w.finishFixture("fx-eve-ful", 2, 0)

	pick := submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")
	submitPick(t, w, w.cara.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("unexpected status: %s (%s)", result.Status, result.Message)
	}

	alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
	if alice.Eliminated {
		t.Fatalf("postponed fixture must not eliminate")
	}

	stored, _, _ := w.selections.GetByParticipantAndRound(context.Background(), w.alice.ID, w.round.ID)
	if stored.Result != selection.ResultVoid {
		t.Fatalf("expected void result on refunded pick, got %q", stored.Result)
	}

	// The refunded team must reappear in the next round's eligible set.
	history, _ := w.selections.ListByGameAndParticipant(context.Background(), w.game.ID, w.alice.ID)
	for _, s := range history {
		if s.ID == pick.ID && s.CountsAsUsed() {
			t.Fatalf("voided pick still counts as used")
		}
	}
}

func TestResolverService_NoFixturesWeekIsNoAction(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	// Push both fixtures out of the round's week.
	for _, id := range []string{"fx-ars-liv", "fx-eve-ful"} {
		fx, _, _ := w.fixtures.GetByID(context.Background(), id)
		fx.KickoffAt = fx.KickoffAt.AddDate(0, 0, 7)
		if _, err := w.fixtures.Upsert(context.Background(), []fixture.Fixture{fx}); err != nil {
			t.Fatalf("move fixture: %v", err)
		}
	}

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("unexpected status: %s (%s)", result.Status, result.Message)
	}
	if result.EliminatedCount != 0 {
		t.Fatalf("no-fixture week must not eliminate anyone, got %d", result.EliminatedCount)
	}
	if result.Completed {
		t.Fatalf("no-fixture week must not complete the game")
	}

	g, _, _ := w.games.GetByID(context.Background(), w.game.ID)
	if g.Status != game.StatusActive {
		t.Fatalf("expected game still active, got %s", g.Status)
	}
}

func TestResolverService_MissedPickEliminateRule(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{missedRule: game.RuleEliminate})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")
	// cara never picks.

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.EliminatedCount != 1 {
		t.Fatalf("expected 1 elimination, got %d", result.EliminatedCount)
	}

	cara, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-cara")
	if !cara.Eliminated {
		t.Fatalf("expected cara eliminated for missing her pick")
	}
}

func TestResolverService_MissedPickNextTeamAlphabetically(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{missedRule: game.RuleNextTeamAlphabetical})
	// Arsenal wins, so the synthesized alphabetically-first pick survives.
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Everton", "fx-eve-ful")
	submitPick(t, w, w.bob.ID, "Fulham", "fx-eve-ful")
	// cara never picks; Arsenal is her first unused team alphabetically.

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("unexpected status: %s (%s)", result.Status, result.Message)
	}

	cara, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-cara")
	if cara.Eliminated {
		t.Fatalf("expected synthesized Arsenal pick to survive")
	}

	synthetic, found, _ := w.selections.GetByParticipantAndRound(context.Background(), w.cara.ID, w.round.ID)
	if !found {
		t.Fatalf("expected a synthetic selection recorded for cara")
	}
	if !synthetic.Synthetic {
		t.Fatalf("expected selection marked synthetic")
	}
	if synthetic.Team != "Arsenal" {
		t.Fatalf("expected alphabetically-first team Arsenal, got %s", synthetic.Team)
	}
	if synthetic.Result != selection.ResultWin {
		t.Fatalf("expected synthetic pick evaluated to win, got %q", synthetic.Result)
	}
}

func TestResolverService_NotReadyReleasesRound(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	// fx-ars-liv still scheduled with no score.
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusNotReady {
		t.Fatalf("expected not_ready, got %s", result.Status)
	}

	rnd, _, _ := w.rounds.Get(context.Background(), w.game.ID, testWeekStart)
	if rnd.Status != round.StatusPending {
		t.Fatalf("expected round released to pending, got %s", rnd.Status)
	}

	alice, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-alice")
	if alice.Eliminated {
		t.Fatalf("no elimination may be recorded on a not-ready round")
	}

	// Once the result lands, the same invocation path resolves cleanly.
	w.finishFixture("fx-ars-liv", 1, 0)
	result, err = resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round after result: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("expected resolved after result, got %s", result.Status)
	}
}

func TestResolverService_CompletionRecordsWinner(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 0, 1)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if !result.Completed {
		t.Fatalf("expected game completed with one survivor")
	}
	if result.WinnerUserID == nil || *result.WinnerUserID != "user-alice" {
		t.Fatalf("expected winner user-alice, got %v", result.WinnerUserID)
	}

	g, _, _ := w.games.GetByID(context.Background(), w.game.ID)
	if g.Status != game.StatusCompleted {
		t.Fatalf("expected game status completed, got %s", g.Status)
	}
	if g.WinnerUserID == nil || *g.WinnerUserID != "user-alice" {
		t.Fatalf("expected winner recorded on game")
	}
}

func TestResolverService_AllEliminatedCompletesWithoutWinner(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	w.finishFixture("fx-ars-liv", 0, 2)
	w.finishFixture("fx-eve-ful", 0, 1)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if !result.Completed {
		t.Fatalf("expected game completed when everyone goes out")
	}
	if result.WinnerUserID != nil {
		t.Fatalf("expected no winner, got %v", *result.WinnerUserID)
	}
	if result.Survivors != 0 {
		t.Fatalf("expected 0 survivors, got %d", result.Survivors)
	}
}

func TestResolverService_SecondCallIsIdempotent(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Liverpool", "fx-ars-liv")
	submitPick(t, w, w.cara.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)
	first, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Status != ResolveStatusResolved {
		t.Fatalf("unexpected first status: %s", first.Status)
	}

	second, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.Status != ResolveStatusSkipped {
		t.Fatalf("expected skipped on second call, got %s", second.Status)
	}

	bob, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-bob")
	if !bob.Eliminated {
		t.Fatalf("terminal state must not change on the second call")
	}
}

func TestResolverService_ConcurrentInvocationsSingleWriter(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Liverpool", "fx-ars-liv")
	submitPick(t, w, w.cara.ID, "Everton", "fx-eve-ful")

	resolver := w.newResolver(resolveTime)

	const callers = 8
	results := make([]ResolveRoundResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
		}()
	}
	wg.Wait()

	resolved := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d errored: %v", i, errs[i])
		}
		if results[i].Status == ResolveStatusResolved {
			resolved++
		}
	}
	if resolved != 1 {
		t.Fatalf("expected exactly one winning resolver, got %d", resolved)
	}

	bob, _, _ := w.participants.GetByGameAndUser(context.Background(), w.game.ID, "user-bob")
	if !bob.Eliminated {
		t.Fatalf("expected bob eliminated exactly once")
	}
}

func TestResolverService_StaleClaimIsReclaimable(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	submitPick(t, w, w.alice.ID, "Arsenal", "fx-ars-liv")
	submitPick(t, w, w.bob.ID, "Everton", "fx-eve-ful")

	// A crashed resolver left the round claimed 20 minutes ago.
	staleClaim := resolveTime.Add(-20 * time.Minute)
	if _, won, err := w.rounds.Claim(context.Background(), w.game.ID, testWeekStart, staleClaim, staleClaim.Add(-5*time.Minute)); err != nil || !won {
		t.Fatalf("seed stale claim: won=%v err=%v", won, err)
	}

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusResolved {
		t.Fatalf("expected stale claim re-claimed and resolved, got %s (%s)", result.Status, result.Message)
	}
}

func TestResolverService_FreshClaimBlocksOthers(t *testing.T) {
	t.Parallel()

	w := newEngineWorld(engineWorldConfig{participants: 2})
	w.finishFixture("fx-ars-liv", 2, 0)
	w.finishFixture("fx-eve-ful", 2, 0)

	recentClaim := resolveTime.Add(-time.Minute)
	if _, won, err := w.rounds.Claim(context.Background(), w.game.ID, testWeekStart, recentClaim, recentClaim.Add(-5*time.Minute)); err != nil || !won {
		t.Fatalf("seed fresh claim: won=%v err=%v", won, err)
	}

	resolver := w.newResolver(resolveTime)
	result, err := resolver.ResolveRound(context.Background(), w.game.ID, testWeekStart)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if result.Status != ResolveStatusSkipped {
		t.Fatalf("expected skipped while claim is fresh, got %s", result.Status)
	}
}
