package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	gamemock "github.com/pitchside/lastman/internal/mocks/domain/game"
	participantmock "github.com/pitchside/lastman/internal/mocks/domain/participant"
)

func TestGameService_ListParticipants_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gameRepo := gamemock.NewRepository(t)
	participantRepo := participantmock.NewRepository(t)

	service := NewGameService(gameRepo, participantRepo, newTestIDGen("id"), newTestIDGen("code"), nil, time.UTC)
	gameID := "pool-2026-autumn"
	expected := []participant.Participant{
		{ID: "part-1", GameID: gameID, UserID: "user-alice"},
		{ID: "part-2", GameID: gameID, UserID: "user-bob", Eliminated: true},
	}

	gameRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), gameID).
		Return(game.Game{ID: gameID}, true, nil).
		Once()
	participantRepo.
		On("ListByGame", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), gameID).
		Return(expected, nil).
		Once()

	got, err := service.ListParticipants(ctx, gameID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(got) != len(expected) {
		t.Fatalf("unexpected participant count: got=%d want=%d", len(got), len(expected))
	}
	if got[1].UserID != expected[1].UserID {
		t.Fatalf("unexpected participant: got=%s want=%s", got[1].UserID, expected[1].UserID)
	}
}

func TestGameService_ListParticipants_GameNotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gameRepo := gamemock.NewRepository(t)
	participantRepo := participantmock.NewRepository(t)

	service := NewGameService(gameRepo, participantRepo, newTestIDGen("id"), newTestIDGen("code"), nil, time.UTC)
	gameID := "missing-pool"

	gameRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), gameID).
		Return(game.Game{}, false, nil).
		Once()

	_, err := service.ListParticipants(ctx, gameID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGameService_JoinGame_RepositoryErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gameRepo := gamemock.NewRepository(t)
	participantRepo := participantmock.NewRepository(t)

	service := NewGameService(gameRepo, participantRepo, newTestIDGen("id"), newTestIDGen("code"), nil, time.UTC)

	gameRepo.
		On("GetByCode", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "POOLAAAA").
		Return(game.Game{}, false, errors.New("connection reset")).
		Once()

	_, err := service.JoinGame(ctx, JoinGameInput{UserID: "user-bob", Code: "POOLAAAA"})
	if err == nil {
		t.Fatalf("expected repository error surfaced")
	}
}
