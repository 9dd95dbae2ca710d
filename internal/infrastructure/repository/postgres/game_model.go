package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/pitchside/lastman/internal/domain/game"
)

type gameTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	Code             string         `db:"code"`
	Name             string         `db:"name"`
	CreatedBy        string         `db:"created_by"`
	StartDate        time.Time      `db:"start_date"`
	ClosingEntryDate time.Time      `db:"closing_entry_date"`
	EntryFeePence    int64          `db:"entry_fee_pence"`
	MinPlayers       int            `db:"min_players"`
	MaxPlayers       sql.NullInt64  `db:"max_players"`
	Competitions     string         `db:"competitions"`
	MissedRule       string         `db:"missed_rule"`
	IncludeDraws     bool           `db:"include_draws"`
	Public           bool           `db:"is_public"`
	Status           string         `db:"status"`
	WinnerUserID     sql.NullString `db:"winner_user_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	DeletedAt        *time.Time     `db:"deleted_at"`
}

type gameInsertModel struct {
	PublicID         string         `db:"public_id"`
	Code             string         `db:"code"`
	Name             string         `db:"name"`
	CreatedBy        string         `db:"created_by"`
	StartDate        time.Time      `db:"start_date"`
	ClosingEntryDate time.Time      `db:"closing_entry_date"`
	EntryFeePence    int64          `db:"entry_fee_pence"`
	MinPlayers       int            `db:"min_players"`
	MaxPlayers       sql.NullInt64  `db:"max_players"`
	Competitions     string         `db:"competitions"`
	MissedRule       string         `db:"missed_rule"`
	IncludeDraws     bool           `db:"include_draws"`
	Public           bool           `db:"is_public"`
	Status           string         `db:"status"`
	WinnerUserID     sql.NullString `db:"winner_user_id"`
}

func (m gameTableModel) toDomain() (game.Game, error) {
	var competitions []game.Competition
	if m.Competitions != "" {
		if err := sonic.UnmarshalString(m.Competitions, &competitions); err != nil {
			return game.Game{}, fmt.Errorf("unmarshal competitions for game=%s: %w", m.PublicID, err)
		}
	}

	return game.Game{
		ID:               m.PublicID,
		Code:             m.Code,
		Name:             m.Name,
		CreatedBy:        m.CreatedBy,
		StartDate:        m.StartDate,
		ClosingEntryDate: m.ClosingEntryDate,
		EntryFeePence:    m.EntryFeePence,
		MinPlayers:       m.MinPlayers,
		MaxPlayers:       nullInt64ToIntPtr(m.MaxPlayers),
		Competitions:     competitions,
		MissedRule:       game.MissedSelectionRule(m.MissedRule),
		IncludeDraws:     m.IncludeDraws,
		Public:           m.Public,
		Status:           m.Status,
		WinnerUserID:     nullStringToPtr(m.WinnerUserID),
	}, nil
}

func gameToInsertModel(g game.Game) (gameInsertModel, error) {
	competitionsJSON, err := sonic.MarshalString(g.Competitions)
	if err != nil {
		return gameInsertModel{}, fmt.Errorf("marshal competitions: %w", err)
	}

	var winner sql.NullString
	if g.WinnerUserID != nil {
		winner = sql.NullString{String: *g.WinnerUserID, Valid: true}
	}

	return gameInsertModel{
		PublicID:         g.ID,
		Code:             g.Code,
		Name:             g.Name,
		CreatedBy:        g.CreatedBy,
		StartDate:        g.StartDate.UTC(),
		ClosingEntryDate: g.ClosingEntryDate.UTC(),
		EntryFeePence:    g.EntryFeePence,
		MinPlayers:       g.MinPlayers,
		MaxPlayers:       intPtrToNullInt64(g.MaxPlayers),
		Competitions:     competitionsJSON,
		MissedRule:       string(g.MissedRule),
		IncludeDraws:     g.IncludeDraws,
		Public:           g.Public,
		Status:           g.Status,
		WinnerUserID:     winner,
	}, nil
}
