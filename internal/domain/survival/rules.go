package survival

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/selection"
)

var (
	ErrCutoffPassed          = errors.New("selection cutoff has passed")
	ErrRoundClosed           = errors.New("round is no longer open for selections")
	ErrParticipantEliminated = errors.New("participant is already eliminated")
	ErrTeamNotEligible       = errors.New("team is not eligible for this round")
	ErrRepeatPick            = errors.New("team was already picked in a previous round")
	ErrDrawPickDisabled      = errors.New("draw picks are not enabled for this game")
	ErrFixtureNotReady       = errors.New("fixture result is not available yet")
)

// Verdict is the outcome of evaluating one pick against its fixture.
type Verdict struct {
	// Result is recorded on the selection: win, loss or void.
	Result string
	// Eliminated reports whether the participant goes out this week.
	Eliminated bool
}

// EvaluatePick applies the survival rules to one submitted pick. The caller
// guarantees the fixture is the one the pick references.
//
// A postponed or void fixture never eliminates and refunds the pick. A team
// pick survives only on a win: a drawn match is a loss for a team pick even
// when the game includes draws, because draw picks are their own pick type.
// An explicit draw pick survives only a drawn match.
func EvaluatePick(pick selection.Selection, fx fixture.Fixture) (Verdict, error) {
	if fx.IsVoidLike() {
		return Verdict{Result: selection.ResultVoid}, nil
	}
	if !fx.HasResult() {
		return Verdict{}, fmt.Errorf("%w: fixture=%s status=%s", ErrFixtureNotReady, fx.ID, fx.Status)
	}

	home, away := *fx.HomeScore, *fx.AwayScore

	if pick.IsDrawPick() {
		if home == away {
			return Verdict{Result: selection.ResultWin}, nil
		}
		return Verdict{Result: selection.ResultLoss, Eliminated: true}, nil
	}

	switch {
	case home == away:
		return Verdict{Result: selection.ResultLoss, Eliminated: true}, nil
	case pickedHome(pick.Team, fx) == (home > away):
		return Verdict{Result: selection.ResultWin}, nil
	default:
		return Verdict{Result: selection.ResultLoss, Eliminated: true}, nil
	}
}

func pickedHome(team string, fx fixture.Fixture) bool {
	return strings.EqualFold(strings.TrimSpace(team), strings.TrimSpace(fx.HomeTeam))
}

// UsedTeams builds the repeat-pick exclusion set from a participant's history.
// Voided picks are refunded and draw-marker picks never consume a team.
func UsedTeams(history []selection.Selection) map[string]struct{} {
	used := make(map[string]struct{}, len(history))
	for _, s := range history {
		if s.IsDrawPick() || !s.CountsAsUsed() {
			continue
		}
		used[NormalizeTeam(s.Team)] = struct{}{}
	}
	return used
}

// NormalizeTeam is the comparison key for team names across fixtures and
// selections.
func NormalizeTeam(team string) string {
	return strings.ToLower(strings.Join(strings.Fields(team), " "))
}
