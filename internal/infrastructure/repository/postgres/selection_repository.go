package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/selection"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

type SelectionRepository struct {
	db *sqlx.DB
}

func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

func (r *SelectionRepository) Upsert(ctx context.Context, s selection.Selection) error {
	model := selectionToInsertModel(s)

	query, args, err := qb.InsertModel("selections", model, `ON CONFLICT (participant_public_id, round_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    team = EXCLUDED.team,
    fixture_public_id = EXCLUDED.fixture_public_id,
    result = EXCLUDED.result,
    synthetic = EXCLUDED.synthetic,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert selection query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert selection participant=%s round=%s: %w", s.ParticipantID, s.RoundID, err)
	}

	return nil
}

func (r *SelectionRepository) GetByParticipantAndRound(ctx context.Context, participantID, roundID string) (selection.Selection, bool, error) {
	query, args, err := qb.Select("*").From("selections").
		Where(
			qb.Eq("participant_public_id", participantID),
			qb.Eq("round_public_id", roundID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return selection.Selection{}, false, fmt.Errorf("build get selection query: %w", err)
	}

	var row selectionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return selection.Selection{}, false, nil
		}
		return selection.Selection{}, false, fmt.Errorf("get selection: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SelectionRepository) ListByRound(ctx context.Context, roundID string) ([]selection.Selection, error) {
	query, args, err := qb.Select("*").From("selections").
		Where(
			qb.Eq("round_public_id", roundID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list selections by round query: %w", err)
	}

	return r.selectSelections(ctx, query, args)
}

func (r *SelectionRepository) ListByGameAndParticipant(ctx context.Context, gameID, participantID string) ([]selection.Selection, error) {
	query, args, err := qb.Select("*").From("selections").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.Eq("participant_public_id", participantID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list selections by participant query: %w", err)
	}

	return r.selectSelections(ctx, query, args)
}

func (r *SelectionRepository) selectSelections(ctx context.Context, query string, args []any) ([]selection.Selection, error) {
	var rows []selectionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select selections: %w", err)
	}

	out := make([]selection.Selection, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
