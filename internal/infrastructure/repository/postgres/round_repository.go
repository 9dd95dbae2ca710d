package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/round"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) CreateIfAbsent(ctx context.Context, rnd round.Round) (bool, error) {
	model := roundInsertModel{
		PublicID:     rnd.ID,
		GamePublicID: rnd.GameID,
		WeekStart:    rnd.WeekStart.UTC(),
		Status:       round.StatusPending,
	}

	query, args, err := qb.InsertModel("rounds", model, `ON CONFLICT (game_public_id, week_start) WHERE deleted_at IS NULL
DO NOTHING`)
	if err != nil {
		return false, fmt.Errorf("build insert round query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert round game=%s week=%s: %w", rnd.GameID, round.WeekKey(rnd.WeekStart), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert round rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *RoundRepository) Get(ctx context.Context, gameID string, weekStart time.Time) (round.Round, bool, error) {
	query, args, err := qb.Select("*").From("rounds").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.Eq("week_start", weekStart.UTC()),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return round.Round{}, false, fmt.Errorf("build get round query: %w", err)
	}

	var row roundTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("get round: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RoundRepository) ListByGame(ctx context.Context, gameID string) ([]round.Round, error) {
	query, args, err := qb.Select("*").From("rounds").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("week_start").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rounds query: %w", err)
	}

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select rounds: %w", err)
	}

	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// Claim is a single conditional UPDATE: only a pending round or a resolving
// round whose claim has gone stale transitions, so concurrent resolvers
// cannot both win.
func (r *RoundRepository) Claim(ctx context.Context, gameID string, weekStart time.Time, claimedAt time.Time, staleBefore time.Time) (round.Round, bool, error) {
	const query = `
UPDATE rounds
SET status = 'resolving',
    claimed_at = $1,
    updated_at = NOW()
WHERE game_public_id = $2
  AND week_start = $3
  AND deleted_at IS NULL
  AND (
        status = 'pending'
        OR (status = 'resolving' AND claimed_at < $4)
      )
RETURNING public_id, game_public_id, week_start, status, claimed_at, resolved_at`

	var row struct {
		PublicID     string     `db:"public_id"`
		GamePublicID string     `db:"game_public_id"`
		WeekStart    time.Time  `db:"week_start"`
		Status       string     `db:"status"`
		ClaimedAt    *time.Time `db:"claimed_at"`
		ResolvedAt   *time.Time `db:"resolved_at"`
	}
	err := r.db.GetContext(ctx, &row, query, claimedAt.UTC(), gameID, weekStart.UTC(), staleBefore.UTC())
	if err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("claim round game=%s week=%s: %w", gameID, round.WeekKey(weekStart), err)
	}

	return round.Round{
		ID:         row.PublicID,
		GameID:     row.GamePublicID,
		WeekStart:  row.WeekStart,
		Status:     row.Status,
		ClaimedAt:  row.ClaimedAt,
		ResolvedAt: row.ResolvedAt,
	}, true, nil
}

func (r *RoundRepository) Release(ctx context.Context, roundID string) error {
	query, args, err := qb.Update("rounds").
		Set("status", round.StatusPending).
		Set("claimed_at", nil).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", roundID),
			qb.Eq("status", round.StatusResolving),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build release round query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release round id=%s: %w", roundID, err)
	}

	return nil
}
