package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pitchside/lastman/internal/domain/selection"
	"github.com/pitchside/lastman/internal/usecase"
)

func (h *Handler) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitSelection")
	defer span.End()

	code := r.PathValue("gameCode")
	g, err := h.gameService.GetGameByCode(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_code", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	var req submitSelectionRequest
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

	submitted, err := h.selectionService.SubmitSelection(ctx, usecase.SubmitSelectionInput{
		GameID:    g.ID,
		UserID:    req.UserID,
		Team:      req.Team,
		FixtureID: req.FixtureID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit selection failed", "game_id", g.ID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, selectionToDTO(ctx, submitted))
}

func (h *Handler) ListSelections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSelections")
	defer span.End()

	code := r.PathValue("gameCode")
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(ctx, w, fmt.Errorf("%w: user_id query parameter is required", usecase.ErrInvalidInput))
		return
	}

	g, err := h.gameService.GetGameByCode(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_code", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	history, err := h.selectionService.SelectionHistory(ctx, g.ID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "selection history failed", "game_id", g.ID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]selectionDTO, 0, len(history))
	for _, s := range history {
		items = append(items, selectionToDTO(ctx, s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type submitSelectionRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Team      string `json:"team" validate:"required"`
	FixtureID string `json:"fixture_id"`
}

type selectionDTO struct {
	ID             string `json:"id"`
	GameID         string `json:"game_id"`
	RoundID        string `json:"round_id"`
	ParticipantID  string `json:"participant_id"`
	Team           string `json:"team"`
	FixtureID      string `json:"fixture_id,omitempty"`
	Result         string `json:"result"`
	Synthetic      bool   `json:"synthetic"`
	SubmittedAtUTC string `json:"submitted_at_utc"`
}

func selectionToDTO(ctx context.Context, s selection.Selection) selectionDTO {
	ctx, span := startSpan(ctx, "httpapi.selectionToDTO")
	defer span.End()

	return selectionDTO{
		ID:             s.ID,
		GameID:         s.GameID,
		RoundID:        s.RoundID,
		ParticipantID:  s.ParticipantID,
		Team:           s.Team,
		FixtureID:      s.FixtureID,
		Result:         s.Result,
		Synthetic:      s.Synthetic,
		SubmittedAtUTC: s.SubmittedAt.UTC().Format(time.RFC3339),
	}
}
