package postgres

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/lastman/internal/domain/game"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestNullHelpers(t *testing.T) {
	t.Run("optional string", func(t *testing.T) {
		if optionalString("") != nil {
			t.Fatalf("expected nil for empty string")
		}
		if got := optionalString("x"); got == nil || *got != "x" {
			t.Fatalf("unexpected pointer: %v", got)
		}
	})

	t.Run("null int64 round trip", func(t *testing.T) {
		if nullInt64ToIntPtr(sql.NullInt64{}) != nil {
			t.Fatalf("expected nil for invalid null int")
		}
		n := 12
		back := nullInt64ToIntPtr(intPtrToNullInt64(&n))
		if back == nil || *back != 12 {
			t.Fatalf("unexpected round trip: %v", back)
		}
		if intPtrToNullInt64(nil).Valid {
			t.Fatalf("expected invalid null for nil pointer")
		}
	})

	t.Run("time pointer normalized to utc", func(t *testing.T) {
		if timePtrUTC(nil) != nil {
			t.Fatalf("expected nil for nil time")
		}
		loc := time.FixedZone("CET", 3600)
		local := time.Date(2026, time.March, 2, 1, 0, 0, 0, loc)
		got := timePtrUTC(&local)
		if got == nil || got.Location() != time.UTC {
			t.Fatalf("expected UTC time, got %v", got)
		}
		if !got.Equal(local) {
			t.Fatalf("conversion must not shift the instant")
		}
	})
}

func TestGameModelRoundTrip(t *testing.T) {
	maxPlayers := 20
	winner := "user-alice"
	src := game.Game{
		ID:               "game-1",
		Code:             "POOLAAAA",
		Name:             "Office Pool",
		CreatedBy:        "user-alice",
		StartDate:        time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		ClosingEntryDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		MinPlayers:       2,
		MaxPlayers:       &maxPlayers,
		Competitions: []game.Competition{
			{CountryCode: "GB", CompetitionID: "premier-league"},
		},
		MissedRule:   game.RuleEliminate,
		Status:       game.StatusCompleted,
		WinnerUserID: &winner,
	}

	model, err := gameToInsertModel(src)
	if err != nil {
		t.Fatalf("to insert model: %v", err)
	}

	table := gameTableModel{
		PublicID:         model.PublicID,
		Code:             model.Code,
		Name:             model.Name,
		CreatedBy:        model.CreatedBy,
		StartDate:        model.StartDate,
		ClosingEntryDate: model.ClosingEntryDate,
		EntryFeePence:    model.EntryFeePence,
		MinPlayers:       model.MinPlayers,
		MaxPlayers:       model.MaxPlayers,
		Competitions:     model.Competitions,
		MissedRule:       model.MissedRule,
		IncludeDraws:     model.IncludeDraws,
		Public:           model.Public,
		Status:           model.Status,
		WinnerUserID:     model.WinnerUserID,
	}
	back, err := table.toDomain()
	if err != nil {
		t.Fatalf("to domain: %v", err)
	}

	if back.ID != src.ID || back.Code != src.Code || back.MissedRule != src.MissedRule {
		t.Fatalf("identity fields drifted: %+v", back)
	}
	if len(back.Competitions) != 1 || back.Competitions[0].Key() != "GB/premier-league" {
		t.Fatalf("competitions drifted: %+v", back.Competitions)
	}
	if back.MaxPlayers == nil || *back.MaxPlayers != maxPlayers {
		t.Fatalf("max players drifted: %v", back.MaxPlayers)
	}
	if back.WinnerUserID == nil || *back.WinnerUserID != winner {
		t.Fatalf("winner drifted: %v", back.WinnerUserID)
	}
}
