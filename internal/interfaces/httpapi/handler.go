package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pitchside/lastman/internal/usecase"
)

type Handler struct {
	gameService        *usecase.GameService
	selectionService   *usecase.SelectionService
	eligibilityService *usecase.EligibilityService
	resolverService    *usecase.ResolverService
	schedulerService   *usecase.SchedulerService
	ingestService      *usecase.FixtureIngestService
	loc                *time.Location
	logger             *slog.Logger
	validator          *validator.Validate
}

func NewHandler(
	gameService *usecase.GameService,
	selectionService *usecase.SelectionService,
	eligibilityService *usecase.EligibilityService,
	resolverService *usecase.ResolverService,
	schedulerService *usecase.SchedulerService,
	ingestService *usecase.FixtureIngestService,
	loc *time.Location,
	logger *slog.Logger,
) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		gameService:        gameService,
		selectionService:   selectionService,
		eligibilityService: eligibilityService,
		resolverService:    resolverService,
		schedulerService:   schedulerService,
		ingestService:      ingestService,
		loc:                loc,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
