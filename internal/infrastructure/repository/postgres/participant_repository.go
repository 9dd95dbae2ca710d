package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/lastman/internal/domain/participant"
	qb "github.com/pitchside/lastman/internal/platform/querybuilder"
)

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	model := participantInsertModel{
		PublicID:       p.ID,
		GamePublicID:   p.GameID,
		UserID:         p.UserID,
		JoinedAt:       p.JoinedAt.UTC(),
		Eliminated:     p.Eliminated,
		EliminatedWeek: timePtrUTC(p.EliminatedWeek),
	}

	query, args, err := qb.InsertModel("participants", model, "")
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert participant id=%s: %w", p.ID, err)
	}

	return nil
}

func (r *ParticipantRepository) GetByGameAndUser(ctx context.Context, gameID, userID string) (participant.Participant, bool, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) ListByGame(ctx context.Context, gameID string) ([]participant.Participant, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	return r.selectParticipants(ctx, query, args)
}

func (r *ParticipantRepository) ListActiveByGame(ctx context.Context, gameID string) ([]participant.Participant, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.Expr("eliminated = FALSE"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active participants query: %w", err)
	}

	return r.selectParticipants(ctx, query, args)
}

func (r *ParticipantRepository) CountByGame(ctx context.Context, gameID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("participants").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count participants query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}

	return count, nil
}

func (r *ParticipantRepository) selectParticipants(ctx context.Context, query string, args []any) ([]participant.Participant, error) {
	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}

	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
