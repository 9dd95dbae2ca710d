package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/platform/cache"
	idgen "github.com/pitchside/lastman/internal/platform/id"
)

const (
	cacheKeyPublicOpenGames = "games:public-open"

	// codeRetryLimit bounds invite-code collision retries on create.
	codeRetryLimit = 5
)

type CreateGameInput struct {
	UserID        string
	Name          string
	StartDate     time.Time
	EntryFeePence int64
	MinPlayers    int
	MaxPlayers    *int
	Competitions  []game.Competition
	MissedRule    game.MissedSelectionRule
	IncludeDraws  bool
	Public        bool
}

type JoinGameInput struct {
	UserID string
	Code   string
}

type GameService struct {
	gameRepo        game.Repository
	participantRepo participant.Repository
	idGen           idgen.Generator
	codeGen         idgen.CodeGenerator
	store           *cache.Store
	loc             *time.Location
	now             func() time.Time
}

func NewGameService(
	gameRepo game.Repository,
	participantRepo participant.Repository,
	idGen idgen.Generator,
	codeGen idgen.CodeGenerator,
	store *cache.Store,
	loc *time.Location,
) *GameService {
	if loc == nil {
		loc = time.UTC
	}
	return &GameService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		idGen:           idGen,
		codeGen:         codeGen,
		store:           store,
		loc:             loc,
		now:             time.Now,
	}
}

// CreateGame validates and persists a new pool. The creator automatically
// joins as the first participant.
func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.CreateGame")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	if input.UserID == "" {
		return game.Game{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return game.Game{}, fmt.Errorf("%w: game name is required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return game.Game{}, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}

	if !IsMonday(input.StartDate, s.loc) {
		return game.Game{}, fmt.Errorf("%w: start date must fall on a Monday", ErrInvalidInput)
	}
	startDate := MondayOf(input.StartDate, s.loc)

	now := s.now().In(s.loc)
	if !startDate.After(now) {
		return game.Game{}, fmt.Errorf("%w: start date must be in the future", ErrInvalidInput)
	}

	gameID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, fmt.Errorf("generate game id: %w", err)
	}

	g := game.Game{
		ID:               gameID,
		Name:             input.Name,
		CreatedBy:        input.UserID,
		StartDate:        startDate,
		ClosingEntryDate: startDate.AddDate(0, 0, -1),
		EntryFeePence:    input.EntryFeePence,
		MinPlayers:       input.MinPlayers,
		MaxPlayers:       input.MaxPlayers,
		Competitions:     input.Competitions,
		MissedRule:       input.MissedRule,
		IncludeDraws:     input.IncludeDraws,
		Public:           input.Public,
		Status:           game.StatusOpen,
	}
	if g.EntryFeePence < 0 {
		return game.Game{}, fmt.Errorf("%w: entry fee cannot be negative", ErrInvalidInput)
	}
	if err := g.Validate(); err != nil {
		return game.Game{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	for attempt := 0; ; attempt++ {
		code, err := s.codeGen.NewCode()
		if err != nil {
			return game.Game{}, fmt.Errorf("generate game code: %w", err)
		}
		g.Code = code

		err = s.gameRepo.Create(ctx, g)
		if err == nil {
			break
		}
		if isDuplicateConstraintError(err) && attempt < codeRetryLimit {
			continue
		}
		return game.Game{}, fmt.Errorf("create game: %w", err)
	}

	creatorParticipantID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, fmt.Errorf("generate participant id: %w", err)
	}
	creator := participant.Participant{
		ID:       creatorParticipantID,
		GameID:   g.ID,
		UserID:   input.UserID,
		JoinedAt: s.now().UTC(),
	}
	if err := s.participantRepo.Create(ctx, creator); err != nil {
		return game.Game{}, fmt.Errorf("join creator to game: %w", err)
	}

	if s.store != nil {
		s.store.Delete(ctx, cacheKeyPublicOpenGames)
	}

	return g, nil
}

// JoinGame adds a user to an open game by invite code.
func (s *GameService) JoinGame(ctx context.Context, input JoinGameInput) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.JoinGame")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.UserID == "" {
		return participant.Participant{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Code == "" {
		return participant.Participant{}, fmt.Errorf("%w: game code is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("get game by code: %w", err)
	}
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: game code=%s", ErrNotFound, input.Code)
	}

	if g.Status != game.StatusOpen {
		return participant.Participant{}, fmt.Errorf("%w: game is not open for entries", ErrConflict)
	}
	// Entries stay open through the end of the closing entry day.
	entryDeadline := g.ClosingEntryDate.AddDate(0, 0, 1)
	if !s.now().In(s.loc).Before(entryDeadline) {
		return participant.Participant{}, fmt.Errorf("%w: entry window has closed", ErrConflict)
	}

	if _, joined, err := s.participantRepo.GetByGameAndUser(ctx, g.ID, input.UserID); err != nil {
		return participant.Participant{}, fmt.Errorf("check existing participant: %w", err)
	} else if joined {
		return participant.Participant{}, fmt.Errorf("%w: user already joined this game", ErrConflict)
	}

	if g.MaxPlayers != nil {
		count, err := s.participantRepo.CountByGame(ctx, g.ID)
		if err != nil {
			return participant.Participant{}, fmt.Errorf("count participants: %w", err)
		}
		if count >= *g.MaxPlayers {
			return participant.Participant{}, fmt.Errorf("%w: game is full", ErrConflict)
		}
	}

	participantID, err := s.idGen.NewID()
	if err != nil {
		return participant.Participant{}, fmt.Errorf("generate participant id: %w", err)
	}
	p := participant.Participant{
		ID:       participantID,
		GameID:   g.ID,
		UserID:   input.UserID,
		JoinedAt: s.now().UTC(),
	}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		if isDuplicateConstraintError(err) {
			return participant.Participant{}, fmt.Errorf("%w: user already joined this game", ErrConflict)
		}
		return participant.Participant{}, fmt.Errorf("create participant: %w", err)
	}

	return p, nil
}

// GetGameByCode looks a game up by its invite code.
func (s *GameService) GetGameByCode(ctx context.Context, code string) (game.Game, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return game.Game{}, fmt.Errorf("%w: game code is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByCode(ctx, code)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game by code: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game code=%s", ErrNotFound, code)
	}

	return g, nil
}

// GetGame looks a game up by id.
func (s *GameService) GetGame(ctx context.Context, gameID string) (game.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}

	return g, nil
}

// ListPublicOpenGames returns joinable public games, served through the
// shared cache when one is configured.
func (s *GameService) ListPublicOpenGames(ctx context.Context) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.ListPublicOpenGames")
	defer span.End()

	if s.store == nil {
		return s.gameRepo.ListPublicOpen(ctx)
	}

	value, err := s.store.GetOrLoad(ctx, cacheKeyPublicOpenGames, func(ctx context.Context) (any, error) {
		games, err := s.gameRepo.ListPublicOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("list public open games: %w", err)
		}
		return games, nil
	})
	if err != nil {
		return nil, err
	}

	games, ok := value.([]game.Game)
	if !ok {
		return s.gameRepo.ListPublicOpen(ctx)
	}
	return games, nil
}

// ListParticipants returns all entrants of a game, eliminated included.
func (s *GameService) ListParticipants(ctx context.Context, gameID string) ([]participant.Participant, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	if _, exists, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}

	participants, err := s.participantRepo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return participants, nil
}
