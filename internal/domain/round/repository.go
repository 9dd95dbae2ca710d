package round

import (
	"context"
	"time"

	"github.com/pitchside/lastman/internal/domain/selection"
)

// Repository exposes round persistence. Claim is the only synchronization
// primitive the engine needs: a conditional status update that exactly one
// concurrent caller can win.
type Repository interface {
	// CreateIfAbsent persists a pending round for (gameID, weekStart) and
	// reports whether a new row was written. An existing row is a no-op.
	CreateIfAbsent(ctx context.Context, r Round) (bool, error)
	Get(ctx context.Context, gameID string, weekStart time.Time) (Round, bool, error)
	ListByGame(ctx context.Context, gameID string) ([]Round, error)

	// Claim transitions the round from pending to resolving, or re-claims a
	// round whose previous claim is older than staleBefore. Returns false when
	// another resolver holds the claim or the round is already resolved.
	Claim(ctx context.Context, gameID string, weekStart time.Time, claimedAt time.Time, staleBefore time.Time) (Round, bool, error)

	// Release returns a claimed round to pending so a later invocation can
	// retry it.
	Release(ctx context.Context, roundID string) error
}

// Resolution is the atomic write set produced by resolving one round. All of
// it commits in a single transaction, or none of it does.
type Resolution struct {
	RoundID    string
	GameID     string
	WeekStart  time.Time
	ResolvedAt time.Time

	// EliminatedParticipantIDs are marked eliminated with WeekStart recorded
	// as the elimination week.
	EliminatedParticipantIDs []string

	// SyntheticSelections are picks synthesized by the next-team-alphabetically
	// rule for participants who never submitted one.
	SyntheticSelections []selection.Selection

	// ResultBySelectionID records the evaluated outcome of every selection in
	// the round, including voided picks that refund the repeat-pick check.
	ResultBySelectionID map[string]string

	// GameStatus, when non-empty, transitions the game (completion); the
	// winner pointer is recorded alongside when a sole survivor remains.
	GameStatus   string
	WinnerUserID *string
}

// ResolutionWriter commits a resolution atomically and moves the round to
// resolved. Implementations must guarantee a failed commit leaves the round
// claimable again.
type ResolutionWriter interface {
	CommitResolution(ctx context.Context, res Resolution) error
}
