package postgres

import (
	"time"

	"github.com/pitchside/lastman/internal/domain/round"
)

type roundTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	GamePublicID string     `db:"game_public_id"`
	WeekStart    time.Time  `db:"week_start"`
	Status       string     `db:"status"`
	ClaimedAt    *time.Time `db:"claimed_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type roundInsertModel struct {
	PublicID     string    `db:"public_id"`
	GamePublicID string    `db:"game_public_id"`
	WeekStart    time.Time `db:"week_start"`
	Status       string    `db:"status"`
}

func (m roundTableModel) toDomain() round.Round {
	return round.Round{
		ID:         m.PublicID,
		GameID:     m.GamePublicID,
		WeekStart:  m.WeekStart,
		Status:     m.Status,
		ClaimedAt:  m.ClaimedAt,
		ResolvedAt: m.ResolvedAt,
	}
}
