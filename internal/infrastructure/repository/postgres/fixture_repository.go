package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/fixture"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByCompetitionsBetween(ctx context.Context, competitionKeys []string, from, to time.Time) ([]fixture.Fixture, error) {
	if len(competitionKeys) == 0 {
		return nil, nil
	}

	keys := make([]any, 0, len(competitionKeys))
	for _, key := range competitionKeys {
		keys = append(keys, key)
	}

	// Rows land normalized (upper country, lower competition id), so the
	// concatenation matches game.Competition.Key exactly.
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.In("(country_code || '/' || competition_id)", keys),
			qb.Gte("kickoff_at", from.UTC()),
			qb.Lt("kickoff_at", to.UTC()),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// Upsert lands feed rows keyed by their upstream fixture id. Returns the
// number of rows written.
func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []fixture.Fixture) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin fixtures tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	written := 0
	for _, fx := range fixtures {
		model := fixtureToInsertModel(fx)

		query, args, err := qb.InsertModel("fixtures", model, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    country_code = EXCLUDED.country_code,
    competition_id = EXCLUDED.competition_id,
    season = EXCLUDED.season,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    kickoff_at = EXCLUDED.kickoff_at,
    status = EXCLUDED.status,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    updated_at = NOW()`)
		if err != nil {
			return 0, fmt.Errorf("build upsert fixture query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert fixture id=%s: %w", fx.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit fixtures tx: %w", err)
	}

	return written, nil
}
