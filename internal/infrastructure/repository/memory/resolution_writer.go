package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/round"
)

// ResolutionWriter applies one round's resolution across the memory stores.
// A process-wide mutex stands in for the storage transaction the postgres
// writer uses; the resolver's claim already guarantees a single writer per
// round, this lock additionally keeps cross-store readers from observing a
// half-applied resolution.
type ResolutionWriter struct {
	mu           sync.Mutex
	games        *GameRepository
	participants *ParticipantRepository
	rounds       *RoundRepository
	selections   *SelectionRepository
}

func NewResolutionWriter(
	games *GameRepository,
	participants *ParticipantRepository,
	rounds *RoundRepository,
	selections *SelectionRepository,
) *ResolutionWriter {
	return &ResolutionWriter{
		games:        games,
		participants: participants,
		rounds:       rounds,
		selections:   selections,
	}
}

func (w *ResolutionWriter) CommitResolution(ctx context.Context, res round.Resolution) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rnd, exists, err := w.rounds.Get(ctx, res.GameID, res.WeekStart)
	if err != nil {
		return fmt.Errorf("get round: %w", err)
	}
	if !exists || rnd.ID != res.RoundID {
		return fmt.Errorf("round %s not found for game %s", res.RoundID, res.GameID)
	}
	if rnd.Status != round.StatusResolving {
		return fmt.Errorf("round %s is %s, expected %s", res.RoundID, rnd.Status, round.StatusResolving)
	}

	w.selections.applyResolution(res.SyntheticSelections, res.ResultBySelectionID)
	w.participants.markEliminated(res.EliminatedParticipantIDs, res.WeekStart)

	if res.GameStatus != "" {
		if err := w.games.UpdateStatus(ctx, res.GameID, res.GameStatus); err != nil {
			return fmt.Errorf("update game status: %w", err)
		}
		if res.GameStatus == game.StatusCompleted {
			w.games.SetWinner(res.GameID, res.WinnerUserID)
		}
	}

	w.rounds.markResolved(res.RoundID, res.ResolvedAt)

	return nil
}
