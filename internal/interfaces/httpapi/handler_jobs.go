package httpapi

import (
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/usecase"
)

// defaultSyncWindow covers the current week plus a lookahead so next week's
// rounds always have fixtures to pick from.
const defaultSyncWindow = 28 * 24 * time.Hour

func (h *Handler) RunSyncFixturesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncFixturesJob")
	defer span.End()

	var req syncFixturesRequest
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

	from, to, err := h.parseSyncWindow(req.From, req.To)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	competitions := make([]game.Competition, 0, len(req.Competitions))
	for _, c := range req.Competitions {
		competitions = append(competitions, game.Competition{
			CountryCode:   c.CountryCode,
			CompetitionID: c.CompetitionID,
		})
	}

	result, err := h.ingestService.SyncFixtures(ctx, usecase.SyncFixturesInput{
		Competitions: competitions,
		From:         from,
		To:           to,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "sync fixtures job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]competitionSyncDTO, 0, len(result.Competitions))
	for _, c := range result.Competitions {
		items = append(items, competitionSyncDTO{
			CountryCode:   c.Competition.CountryCode,
			CompetitionID: c.Competition.CompetitionID,
			Fetched:       c.Fetched,
			Upserted:      c.Upserted,
			Error:         c.Error,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, syncFixturesResultDTO{
		Upserted:     result.Upserted,
		Failed:       result.Failed,
		Competitions: items,
	})
}

func (h *Handler) parseSyncWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	if fromRaw == "" && toRaw == "" {
		from := usecase.MondayOf(time.Now(), h.loc)
		return from, from.Add(defaultSyncWindow), nil
	}

	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be formatted as RFC3339", usecase.ErrInvalidInput)
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be formatted as RFC3339", usecase.ErrInvalidInput)
	}
	return from, to, nil
}

type syncFixturesRequest struct {
	Competitions []competitionDTO `json:"competitions" validate:"required,min=1,dive"`
	From         string           `json:"from"`
	To           string           `json:"to"`
}

type syncFixturesResultDTO struct {
	Upserted     int                  `json:"upserted"`
	Failed       int                  `json:"failed"`
	Competitions []competitionSyncDTO `json:"competitions"`
}

type competitionSyncDTO struct {
	CountryCode   string `json:"country_code"`
	CompetitionID string `json:"competition_id"`
	Fetched       int    `json:"fetched"`
	Upserted      int    `json:"upserted"`
	Error         string `json:"error,omitempty"`
}
