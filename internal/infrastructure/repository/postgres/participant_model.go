package postgres

import (
	"time"

	"github.com/pitchside/lastman/internal/domain/participant"
)

type participantTableModel struct {
	ID             int64      `db:"id"`
	PublicID       string     `db:"public_id"`
	GamePublicID   string     `db:"game_public_id"`
	UserID         string     `db:"user_id"`
	JoinedAt       time.Time  `db:"joined_at"`
	Eliminated     bool       `db:"eliminated"`
	EliminatedWeek *time.Time `db:"eliminated_week"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type participantInsertModel struct {
	PublicID       string     `db:"public_id"`
	GamePublicID   string     `db:"game_public_id"`
	UserID         string     `db:"user_id"`
	JoinedAt       time.Time  `db:"joined_at"`
	Eliminated     bool       `db:"eliminated"`
	EliminatedWeek *time.Time `db:"eliminated_week"`
}

func (m participantTableModel) toDomain() participant.Participant {
	return participant.Participant{
		ID:             m.PublicID,
		GameID:         m.GamePublicID,
		UserID:         m.UserID,
		JoinedAt:       m.JoinedAt,
		Eliminated:     m.Eliminated,
		EliminatedWeek: m.EliminatedWeek,
	}
}
