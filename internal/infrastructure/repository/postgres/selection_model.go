package postgres

import (
	"time"

	"github.com/pitchside/lastman/internal/domain/selection"
)

type selectionTableModel struct {
	ID                  int64      `db:"id"`
	PublicID            string     `db:"public_id"`
	GamePublicID        string     `db:"game_public_id"`
	RoundPublicID       string     `db:"round_public_id"`
	ParticipantPublicID string     `db:"participant_public_id"`
	Team                string     `db:"team"`
	FixturePublicID     string     `db:"fixture_public_id"`
	Result              string     `db:"result"`
	Synthetic           bool       `db:"synthetic"`
	SubmittedAt         time.Time  `db:"submitted_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
}

type selectionInsertModel struct {
	PublicID            string    `db:"public_id"`
	GamePublicID        string    `db:"game_public_id"`
	RoundPublicID       string    `db:"round_public_id"`
	ParticipantPublicID string    `db:"participant_public_id"`
	Team                string    `db:"team"`
	FixturePublicID     string    `db:"fixture_public_id"`
	Result              string    `db:"result"`
	Synthetic           bool      `db:"synthetic"`
	SubmittedAt         time.Time `db:"submitted_at"`
}

func (m selectionTableModel) toDomain() selection.Selection {
	return selection.Selection{
		ID:            m.PublicID,
		GameID:        m.GamePublicID,
		RoundID:       m.RoundPublicID,
		ParticipantID: m.ParticipantPublicID,
		Team:          m.Team,
		FixtureID:     m.FixturePublicID,
		Result:        m.Result,
		Synthetic:     m.Synthetic,
		SubmittedAt:   m.SubmittedAt,
	}
}

func selectionToInsertModel(s selection.Selection) selectionInsertModel {
	return selectionInsertModel{
		PublicID:            s.ID,
		GamePublicID:        s.GameID,
		RoundPublicID:       s.RoundID,
		ParticipantPublicID: s.ParticipantID,
		Team:                s.Team,
		FixturePublicID:     s.FixtureID,
		Result:              s.Result,
		Synthetic:           s.Synthetic,
		SubmittedAt:         s.SubmittedAt.UTC(),
	}
}
