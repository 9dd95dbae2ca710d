package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/round"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

// ResolutionWriter lands one round's resolution in a single transaction.
// The UPDATE guarding the round row re-checks the resolving status, so a
// commit racing a stale re-claim rolls back instead of double-applying.
type ResolutionWriter struct {
	db *sqlx.DB
}

func NewResolutionWriter(db *sqlx.DB) *ResolutionWriter {
	return &ResolutionWriter{db: db}
}

func (w *ResolutionWriter) CommitResolution(ctx context.Context, res round.Resolution) error {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolution tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `
SELECT public_id, status
FROM rounds
WHERE public_id = $1
  AND game_public_id = $2
  AND deleted_at IS NULL
FOR UPDATE`

	var row struct {
		PublicID string `db:"public_id"`
		Status   string `db:"status"`
	}
	if err := tx.GetContext(ctx, &row, lockQuery, res.RoundID, res.GameID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("round %s not found for game %s", res.RoundID, res.GameID)
		}
		return fmt.Errorf("lock round: %w", err)
	}
	if row.Status != round.StatusResolving {
		return fmt.Errorf("round %s is %s, expected %s", res.RoundID, row.Status, round.StatusResolving)
	}

	for _, synthetic := range res.SyntheticSelections {
		model := selectionToInsertModel(synthetic)
		query, args, err := qb.InsertModel("selections", model, `ON CONFLICT (participant_public_id, round_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    team = EXCLUDED.team,
    fixture_public_id = EXCLUDED.fixture_public_id,
    synthetic = EXCLUDED.synthetic,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build insert synthetic selection query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert synthetic selection participant=%s: %w", synthetic.ParticipantID, err)
		}
	}

	for selectionID, result := range res.ResultBySelectionID {
		query, args, err := qb.Update("selections").
			Set("result", result).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("public_id", selectionID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update selection result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update selection result id=%s: %w", selectionID, err)
		}
	}

	if len(res.EliminatedParticipantIDs) > 0 {
		ids := make([]any, 0, len(res.EliminatedParticipantIDs))
		for _, id := range res.EliminatedParticipantIDs {
			ids = append(ids, id)
		}
		query, args, err := qb.Update("participants").
			Set("eliminated", true).
			Set("eliminated_week", res.WeekStart.UTC()).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.In("public_id", ids),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build eliminate participants query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("eliminate participants: %w", err)
		}
	}

	if res.GameStatus != "" {
		builder := qb.Update("games").
			Set("status", res.GameStatus).
			SetExpr("updated_at", "NOW()")
		if res.GameStatus == game.StatusCompleted {
			if res.WinnerUserID != nil {
				builder = builder.Set("winner_user_id", *res.WinnerUserID)
			} else {
				builder = builder.Set("winner_user_id", nil)
			}
		}
		query, args, err := builder.
			Where(
				qb.Eq("public_id", res.GameID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build complete game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("complete game id=%s: %w", res.GameID, err)
		}
	}

	roundQuery, roundArgs, err := qb.Update("rounds").
		Set("status", round.StatusResolved).
		Set("resolved_at", res.ResolvedAt.UTC()).
		Set("claimed_at", nil).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", res.RoundID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build resolve round query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, roundQuery, roundArgs...); err != nil {
		return fmt.Errorf("resolve round id=%s: %w", res.RoundID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolution tx: %w", err)
	}

	return nil
}
