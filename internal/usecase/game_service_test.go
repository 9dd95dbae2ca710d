package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/infrastructure/repository/memory"
)

// createTime sits two weeks before the test week so new games start in the
// future.
var createTime = testWeekStart.AddDate(0, 0, -14)

func newGameService(games *memory.GameRepository, participants *memory.ParticipantRepository, now time.Time) *GameService {
	svc := NewGameService(games, participants, newTestIDGen("id"), newTestIDGen("code"), nil, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func validCreateInput() CreateGameInput {
	return CreateGameInput{
		UserID:     "user-alice",
		Name:       "Office Pool",
		StartDate:  testWeekStart,
		MinPlayers: 2,
		Competitions: []game.Competition{
			{CountryCode: "GB", CompetitionID: "premier-league"},
		},
		MissedRule: game.RuleEliminate,
		Public:     true,
	}
}

func TestGameService_CreateGame(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository(nil)
	participants := memory.NewParticipantRepository(nil)
	svc := newGameService(games, participants, createTime)

	g, err := svc.CreateGame(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.Status != game.StatusOpen {
		t.Fatalf("expected new game open, got %s", g.Status)
	}
	if g.Code == "" {
		t.Fatalf("expected an invite code")
	}
	if !g.ClosingEntryDate.Equal(testWeekStart.AddDate(0, 0, -1)) {
		t.Fatalf("expected entries to close the day before kickoff, got %s", g.ClosingEntryDate)
	}

	// The creator is automatically the first participant.
	p, joined, err := participants.GetByGameAndUser(context.Background(), g.ID, "user-alice")
	if err != nil || !joined {
		t.Fatalf("creator not joined: joined=%v err=%v", joined, err)
	}
	if p.Eliminated {
		t.Fatalf("fresh participant must not be eliminated")
	}
}

func TestGameService_CreateGameValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateGameInput)
	}{
		{"missing user", func(in *CreateGameInput) { in.UserID = "" }},
		{"missing name", func(in *CreateGameInput) { in.Name = "  " }},
		{"zero start date", func(in *CreateGameInput) { in.StartDate = time.Time{} }},
		{"start not a Monday", func(in *CreateGameInput) { in.StartDate = testWeekStart.AddDate(0, 0, 2) }},
		{"start in the past", func(in *CreateGameInput) { in.StartDate = testWeekStart.AddDate(0, 0, -21) }},
		{"no competitions", func(in *CreateGameInput) { in.Competitions = nil }},
		{"negative entry fee", func(in *CreateGameInput) { in.EntryFeePence = -100 }},
		{"unknown missed rule", func(in *CreateGameInput) { in.MissedRule = "Forgive" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newGameService(memory.NewGameRepository(nil), memory.NewParticipantRepository(nil), createTime)
			input := validCreateInput()
			tc.mutate(&input)

			if _, err := svc.CreateGame(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestGameService_JoinGame(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository(nil)
	participants := memory.NewParticipantRepository(nil)
	svc := newGameService(games, participants, createTime)

	g, err := svc.CreateGame(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	p, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code})
	if err != nil {
		t.Fatalf("join game: %v", err)
	}
	if p.GameID != g.ID || p.UserID != "user-bob" {
		t.Fatalf("unexpected participant: %+v", p)
	}

	// Codes are case-insensitive on entry.
	if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-cara", Code: " " + strings.ToLower(g.Code) + " "}); err != nil {
		t.Fatalf("join with lowercase code: %v", err)
	}
}

func TestGameService_JoinGameConflicts(t *testing.T) {
	t.Parallel()

	t.Run("duplicate join", func(t *testing.T) {
		t.Parallel()

		svc := newGameService(memory.NewGameRepository(nil), memory.NewParticipantRepository(nil), createTime)
		g, err := svc.CreateGame(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("create game: %v", err)
		}

		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); err != nil {
			t.Fatalf("first join: %v", err)
		}
		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict on duplicate join, got %v", err)
		}
	})

	t.Run("full game", func(t *testing.T) {
		t.Parallel()

		svc := newGameService(memory.NewGameRepository(nil), memory.NewParticipantRepository(nil), createTime)
		input := validCreateInput()
		input.MaxPlayers = intPtr(2)
		g, err := svc.CreateGame(context.Background(), input)
		if err != nil {
			t.Fatalf("create game: %v", err)
		}

		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); err != nil {
			t.Fatalf("second join: %v", err)
		}
		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-cara", Code: g.Code}); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict when full, got %v", err)
		}
	})

	t.Run("entry window closed", func(t *testing.T) {
		t.Parallel()

		games := memory.NewGameRepository(nil)
		participants := memory.NewParticipantRepository(nil)
		svc := newGameService(games, participants, createTime)
		g, err := svc.CreateGame(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("create game: %v", err)
		}

		// The clock moves onto the start Monday: entries closed Sunday night.
		late := newGameService(games, participants, testWeekStart.Add(time.Hour))
		if _, err := late.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict after the entry window, got %v", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()

		svc := newGameService(memory.NewGameRepository(nil), memory.NewParticipantRepository(nil), createTime)
		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: "NOPE1234"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("active game rejects entries", func(t *testing.T) {
		t.Parallel()

		games := memory.NewGameRepository(nil)
		participants := memory.NewParticipantRepository(nil)
		svc := newGameService(games, participants, createTime)
		g, err := svc.CreateGame(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("create game: %v", err)
		}
		if err := games.UpdateStatus(context.Background(), g.ID, game.StatusActive); err != nil {
			t.Fatalf("activate game: %v", err)
		}

		if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for a started game, got %v", err)
		}
	})
}

func TestGameService_ListPublicOpenGames(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository(nil)
	participants := memory.NewParticipantRepository(nil)
	svc := newGameService(games, participants, createTime)

	public := validCreateInput()
	if _, err := svc.CreateGame(context.Background(), public); err != nil {
		t.Fatalf("create public game: %v", err)
	}

	private := validCreateInput()
	private.UserID = "user-bob"
	private.Name = "Private Pool"
	private.Public = false
	if _, err := svc.CreateGame(context.Background(), private); err != nil {
		t.Fatalf("create private game: %v", err)
	}

	open, err := svc.ListPublicOpenGames(context.Background())
	if err != nil {
		t.Fatalf("list public open: %v", err)
	}
	if len(open) != 1 || open[0].Name != "Office Pool" {
		t.Fatalf("expected only the public game, got %+v", open)
	}
}

func TestGameService_ListParticipants(t *testing.T) {
	t.Parallel()

	svc := newGameService(memory.NewGameRepository(nil), memory.NewParticipantRepository(nil), createTime)
	g, err := svc.CreateGame(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := svc.JoinGame(context.Background(), JoinGameInput{UserID: "user-bob", Code: g.Code}); err != nil {
		t.Fatalf("join game: %v", err)
	}

	people, err := svc.ListParticipants(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected creator plus one joiner, got %d", len(people))
	}

	if _, err := svc.ListParticipants(context.Background(), "game-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
