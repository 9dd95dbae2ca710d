package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Legacy routes keep the original flat {ok:...} wire contract. The cron
// schedule and the mobile app still call these paths directly.
func registerLegacyEngineRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /available-teams", handler.AvailableTeams)
	mux.HandleFunc("GET /process-round", handler.ProcessRound)
	mux.HandleFunc("GET /weekly-rollover", handler.WeeklyRollover)
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/games", handler.CreateGame)
	mux.HandleFunc("GET /v1/games/open", handler.ListOpenGames)
	mux.HandleFunc("GET /v1/games/{gameCode}", handler.GetGame)
	mux.HandleFunc("POST /v1/games/{gameCode}/join", handler.JoinGame)
	mux.HandleFunc("GET /v1/games/{gameCode}/participants", handler.ListParticipants)
	mux.HandleFunc("POST /v1/games/{gameCode}/selections", handler.SubmitSelection)
	mux.HandleFunc("GET /v1/games/{gameCode}/selections", handler.ListSelections)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-fixtures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncFixturesJob)))
}
