package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/game"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	model, err := gameToInsertModel(g)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("games", model, "")
	if err != nil {
		return fmt.Errorf("build insert game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game id=%s: %w", g.ID, err)
	}

	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}

	g, err := row.toDomain()
	if err != nil {
		return game.Game{}, false, err
	}
	return g, true, nil
}

func (r *GameRepository) GetByCode(ctx context.Context, code string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("code", strings.ToUpper(strings.TrimSpace(code))),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by code query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by code: %w", err)
	}

	g, err := row.toDomain()
	if err != nil {
		return game.Game{}, false, err
	}
	return g, true, nil
}

func (r *GameRepository) ListByStatus(ctx context.Context, statuses ...string) ([]game.Game, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status)
	}

	query, args, err := qb.Select("*").From("games").
		Where(
			qb.In("status", values),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by status query: %w", err)
	}

	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) ListPublicOpen(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", game.StatusOpen),
			qb.Expr("is_public = TRUE"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("start_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list public open games query: %w", err)
	}

	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) UpdateStatus(ctx context.Context, gameID, status string) error {
	query, args, err := qb.Update("games").
		Set("status", status).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update game status id=%s: %w", gameID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("game not found: id=%s", gameID)
	}

	return nil
}

func (r *GameRepository) selectGames(ctx context.Context, query string, args []any) ([]game.Game, error) {
	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		g, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	return out, nil
}
