package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/usecase"
)

const dateLayout = "2006-01-02"

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGame")
	defer span.End()

	var req createGameRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, h.loc)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: start_date must be formatted as YYYY-MM-DD", usecase.ErrInvalidInput))
		return
	}

	competitions := make([]game.Competition, 0, len(req.Competitions))
	for _, c := range req.Competitions {
		competitions = append(competitions, game.Competition{
			CountryCode:   c.CountryCode,
			CompetitionID: c.CompetitionID,
		})
	}

	minPlayers := req.MinPlayers
	if minPlayers == 0 {
		minPlayers = 2
	}
	missedRule := game.MissedSelectionRule(strings.TrimSpace(req.MissedRule))
	if missedRule == "" {
		missedRule = game.RuleEliminate
	}

	created, err := h.gameService.CreateGame(ctx, usecase.CreateGameInput{
		UserID:        req.UserID,
		Name:          req.Name,
		StartDate:     startDate,
		EntryFeePence: req.EntryFeePence,
		MinPlayers:    minPlayers,
		MaxPlayers:    req.MaxPlayers,
		Competitions:  competitions,
		MissedRule:    missedRule,
		IncludeDraws:  req.IncludeDraws,
		Public:        req.Public,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create game failed", "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameToDTO(ctx, created))
}

func (h *Handler) ListOpenGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpenGames")
	defer span.End()

	games, err := h.gameService.ListPublicOpenGames(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list open games failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]gameDTO, 0, len(games))
	for _, g := range games {
		items = append(items, gameToDTO(ctx, g))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	code := r.PathValue("gameCode")
	g, err := h.gameService.GetGameByCode(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_code", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(ctx, g))
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinGame")
	defer span.End()

	code := r.PathValue("gameCode")
	var req joinGameRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	joined, err := h.gameService.JoinGame(ctx, usecase.JoinGameInput{
		UserID: req.UserID,
		Code:   code,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join game failed", "game_code", code, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, participantToDTO(ctx, joined))
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListParticipants")
	defer span.End()

	code := r.PathValue("gameCode")
	g, err := h.gameService.GetGameByCode(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_code", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	participants, err := h.gameService.ListParticipants(ctx, g.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list participants failed", "game_id", g.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]participantDTO, 0, len(participants))
	for _, p := range participants {
		items = append(items, participantToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type createGameRequest struct {
	UserID        string           `json:"user_id" validate:"required"`
	Name          string           `json:"name" validate:"required,max=100"`
	StartDate     string           `json:"start_date" validate:"required"`
	EntryFeePence int64            `json:"entry_fee_pence" validate:"min=0"`
	MinPlayers    int              `json:"min_players" validate:"min=0"`
	MaxPlayers    *int             `json:"max_players"`
	Competitions  []competitionDTO `json:"competitions" validate:"required,min=1,dive"`
	MissedRule    string           `json:"missed_rule" validate:"omitempty,oneof=Eliminate NextTeamAlphabetically"`
	IncludeDraws  bool             `json:"include_draws"`
	Public        bool             `json:"public"`
}

type joinGameRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type competitionDTO struct {
	CountryCode   string `json:"country_code" validate:"required"`
	CompetitionID string `json:"competition_id" validate:"required"`
}

type gameDTO struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	CreatedBy        string           `json:"created_by"`
	StartDate        string           `json:"start_date"`
	ClosingEntryDate string           `json:"closing_entry_date"`
	EntryFeePence    int64            `json:"entry_fee_pence"`
	MinPlayers       int              `json:"min_players"`
	MaxPlayers       *int             `json:"max_players,omitempty"`
	Competitions     []competitionDTO `json:"competitions"`
	MissedRule       string           `json:"missed_rule"`
	IncludeDraws     bool             `json:"include_draws"`
	Public           bool             `json:"public"`
	Status           string           `json:"status"`
	WinnerUserID     *string          `json:"winner_user_id,omitempty"`
}

type participantDTO struct {
	ID             string  `json:"id"`
	GameID         string  `json:"game_id"`
	UserID         string  `json:"user_id"`
	Eliminated     bool    `json:"eliminated"`
	EliminatedWeek *string `json:"eliminated_week,omitempty"`
	JoinedAtUTC    string  `json:"joined_at_utc"`
}

func gameToDTO(ctx context.Context, g game.Game) gameDTO {
	ctx, span := startSpan(ctx, "httpapi.gameToDTO")
	defer span.End()

	competitions := make([]competitionDTO, 0, len(g.Competitions))
	for _, c := range g.Competitions {
		competitions = append(competitions, competitionDTO{
			CountryCode:   c.CountryCode,
			CompetitionID: c.CompetitionID,
		})
	}

	return gameDTO{
		ID:               g.ID,
		Code:             g.Code,
		Name:             g.Name,
		CreatedBy:        g.CreatedBy,
		StartDate:        g.StartDate.Format(dateLayout),
		ClosingEntryDate: g.ClosingEntryDate.Format(dateLayout),
		EntryFeePence:    g.EntryFeePence,
		MinPlayers:       g.MinPlayers,
		MaxPlayers:       g.MaxPlayers,
		Competitions:     competitions,
		MissedRule:       string(g.MissedRule),
		IncludeDraws:     g.IncludeDraws,
		Public:           g.Public,
		Status:           g.Status,
		WinnerUserID:     g.WinnerUserID,
	}
}

func participantToDTO(ctx context.Context, p participant.Participant) participantDTO {
	ctx, span := startSpan(ctx, "httpapi.participantToDTO")
	defer span.End()

	var eliminatedWeek *string
	if p.EliminatedWeek != nil {
		week := p.EliminatedWeek.Format(dateLayout)
		eliminatedWeek = &week
	}

	return participantDTO{
		ID:             p.ID,
		GameID:         p.GameID,
		UserID:         p.UserID,
		Eliminated:     p.Eliminated,
		EliminatedWeek: eliminatedWeek,
		JoinedAtUTC:    p.JoinedAt.UTC().Format(time.RFC3339),
	}
}
