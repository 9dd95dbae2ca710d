package postgres

import (
	"database/sql"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID            int64         `db:"id"`
	PublicID      string        `db:"public_id"`
	CountryCode   string        `db:"country_code"`
	CompetitionID string        `db:"competition_id"`
	Season        string        `db:"season"`
	HomeTeam      string        `db:"home_team"`
	AwayTeam      string        `db:"away_team"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	Status        string        `db:"status"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
	DeletedAt     *time.Time    `db:"deleted_at"`
}

type fixtureInsertModel struct {
	PublicID      string        `db:"public_id"`
	CountryCode   string        `db:"country_code"`
	CompetitionID string        `db:"competition_id"`
	Season        string        `db:"season"`
	HomeTeam      string        `db:"home_team"`
	AwayTeam      string        `db:"away_team"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	Status        string        `db:"status"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:            m.PublicID,
		CountryCode:   m.CountryCode,
		CompetitionID: m.CompetitionID,
		Season:        m.Season,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		KickoffAt:     m.KickoffAt,
		Status:        m.Status,
		HomeScore:     nullInt64ToIntPtr(m.HomeScore),
		AwayScore:     nullInt64ToIntPtr(m.AwayScore),
	}
}

func fixtureToInsertModel(f fixture.Fixture) fixtureInsertModel {
	return fixtureInsertModel{
		PublicID:      f.ID,
		CountryCode:   f.CountryCode,
		CompetitionID: f.CompetitionID,
		Season:        f.Season,
		HomeTeam:      f.HomeTeam,
		AwayTeam:      f.AwayTeam,
		KickoffAt:     f.KickoffAt.UTC(),
		Status:        f.Status,
		HomeScore:     intPtrToNullInt64(f.HomeScore),
		AwayScore:     intPtrToNullInt64(f.AwayScore),
	}
}
