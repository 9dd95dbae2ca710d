package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/usecase"
)

// AvailableTeams answers the legacy eligible-team query.
func (h *Handler) AvailableTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AvailableTeams")
	defer span.End()

	query := r.URL.Query()
	gameID := strings.TrimSpace(query.Get("game_id"))
	userID := strings.TrimSpace(query.Get("user_id"))
	if gameID == "" || userID == "" || strings.TrimSpace(query.Get("week_start")) == "" {
		writeLegacyError(ctx, w, fmt.Errorf("%w: game_id, user_id and week_start query parameters are required", usecase.ErrInvalidInput))
		return
	}

	at, err := h.parseWeekStartParam(query.Get("week_start"))
	if err != nil {
		writeLegacyError(ctx, w, err)
		return
	}

	result, err := h.eligibilityService.EligibleTeams(ctx, gameID, userID, at)
	if err != nil {
		h.logger.WarnContext(ctx, "available teams failed", "game_id", gameID, "user_id", userID, "error", err)
		writeLegacyError(ctx, w, err)
		return
	}

	teams := make([]string, 0, len(result.Teams))
	for _, t := range result.Teams {
		teams = append(teams, t.Team)
	}

	writeJSON(ctx, w, http.StatusOK, legacyTeamsResponse{OK: true, Teams: teams})
}

// ProcessRound triggers resolution of one game's round for the given week.
// Safe to call repeatedly; a round already taken by another worker reports
// as skipped rather than failing.
func (h *Handler) ProcessRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProcessRound")
	defer span.End()

	query := r.URL.Query()
	gameID := strings.TrimSpace(query.Get("game_id"))
	if gameID == "" || strings.TrimSpace(query.Get("week_start")) == "" {
		writeLegacyError(ctx, w, fmt.Errorf("%w: game_id and week_start query parameters are required", usecase.ErrInvalidInput))
		return
	}

	at, err := h.parseWeekStartParam(query.Get("week_start"))
	if err != nil {
		writeLegacyError(ctx, w, err)
		return
	}
	weekStart := usecase.MondayOf(at, h.loc)

	result, err := h.resolverService.ResolveRound(ctx, gameID, weekStart)
	if err != nil {
		h.logger.WarnContext(ctx, "process round failed", "game_id", gameID, "week_start", weekStart, "error", err)
		writeLegacyError(ctx, w, err)
		return
	}

	var message string
	switch result.Status {
	case usecase.ResolveStatusResolved:
		message = fmt.Sprintf("round resolved: eliminated=%d survivors=%d", result.EliminatedCount, result.Survivors)
	case usecase.ResolveStatusSkipped:
		message = "round already resolved or in progress"
	case usecase.ResolveStatusNotReady:
		message = "fixture results not ready, round released"
	default:
		message = result.Status
	}

	writeJSON(ctx, w, http.StatusOK, legacyMessageResponse{OK: true, Message: message})
}

// WeeklyRollover runs the Monday sweep: materialize this week's rounds, flip
// games past their start date to active, and enqueue any unresolved previous
// week. Partial failures are reported in the message, not as an error.
func (h *Handler) WeeklyRollover(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WeeklyRollover")
	defer span.End()

	result, err := h.schedulerService.EnsureRounds(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "weekly rollover failed", "error", err)
		writeLegacyError(ctx, w, err)
		return
	}

	message := fmt.Sprintf("rollover complete: games=%d rounds_created=%d activated=%d enqueued=%d",
		result.GamesSeen, result.RoundsCreated, result.Activated, result.Enqueued)
	if len(result.Failures) > 0 {
		message = fmt.Sprintf("%s failures=%d", message, len(result.Failures))
	}

	writeJSON(ctx, w, http.StatusOK, legacyMessageResponse{OK: true, Message: message})
}

func (h *Handler) parseWeekStartParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: week_start query parameter is required", usecase.ErrInvalidInput)
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: week_start must be formatted as YYYY-MM-DD", usecase.ErrInvalidInput)
	}
	return parsed, nil
}
