package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/infrastructure/repository/memory"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

// BootstrapSeed lands the demo pool when the database is empty. Re-running
// against a populated database is a no-op.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM games WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count games for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, g := range memory.SeedGames(now) {
		model, err := gameToInsertModel(g)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertModel("games", model, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build seed game %s query: %w", g.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed game %s: %w", g.ID, err)
		}
	}

	for _, p := range memory.SeedParticipants(now) {
		model := participantInsertModel{
			PublicID:       p.ID,
			GamePublicID:   p.GameID,
			UserID:         p.UserID,
			JoinedAt:       p.JoinedAt.UTC(),
			Eliminated:     p.Eliminated,
			EliminatedWeek: timePtrUTC(p.EliminatedWeek),
		}
		query, args, err := qb.InsertModel("participants", model, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build seed participant %s query: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed participant %s: %w", p.ID, err)
		}
	}

	for _, fx := range memory.SeedFixtures(now) {
		model := fixtureToInsertModel(fx)
		query, args, err := qb.InsertModel("fixtures", model, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build seed fixture %s query: %w", fx.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed fixture %s: %w", fx.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
