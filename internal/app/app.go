package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/pitchside/lastman/external/fixturefeed"
	"github.com/pitchside/lastman/external/jobqueue"
	"github.com/pitchside/lastman/internal/config"
	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
	"github.com/pitchside/lastman/internal/domain/round"
	"github.com/pitchside/lastman/internal/domain/selection"
	"github.com/pitchside/lastman/internal/infrastructure/repository/memory"
	"github.com/pitchside/lastman/internal/infrastructure/repository/postgres"
	"github.com/pitchside/lastman/internal/interfaces/httpapi"
	"github.com/pitchside/lastman/internal/platform/cache"
	idgen "github.com/pitchside/lastman/internal/platform/id"
	"github.com/pitchside/lastman/internal/platform/logging"
	"github.com/pitchside/lastman/internal/platform/resilience"
	"github.com/pitchside/lastman/internal/usecase"
)

const fixtureIngestConcurrency = 4

// storage groups one backend's repository set so the memory and postgres
// paths wire identically.
type storage struct {
	games         game.Repository
	participants  participant.Repository
	rounds        round.Repository
	selections    selection.Repository
	fixtures      fixture.Repository
	fixtureWriter fixture.Writer
	writer        round.ResolutionWriter
	close         func() error
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if httpLogger == nil {
		httpLogger = slog.Default()
	}

	store, err := newStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	var cacheStore *cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(cfg.CacheTTL)
	}

	generator := idgen.NewRandomGenerator()
	loc := cfg.GameLocation

	gameSvc := usecase.NewGameService(store.games, store.participants, generator, generator, cacheStore, loc)
	selectionSvc := usecase.NewSelectionService(store.games, store.participants, store.rounds, store.selections, store.fixtures, generator, loc)
	eligibilitySvc := usecase.NewEligibilityService(store.games, store.participants, store.selections, store.fixtures, loc)
	resolverSvc := usecase.NewResolverService(
		store.games,
		store.participants,
		store.rounds,
		store.selections,
		store.fixtures,
		store.writer,
		generator,
		logger,
		loc,
		cfg.ResolverClaimGrace,
		cfg.ResolverBudget,
	)

	var schedulerSvc *usecase.SchedulerService
	if cfg.QStashEnabled {
		publisher := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
		}, httpLogger)
		schedulerSvc = usecase.NewSchedulerService(store.games, store.rounds, generator, publisher, logger, loc, cfg.SchedulerMaxWorkers)
	} else {
		schedulerSvc = usecase.NewSchedulerService(store.games, store.rounds, generator, nil, logger, loc, cfg.SchedulerMaxWorkers)
	}

	var ingestSvc *usecase.FixtureIngestService
	if cfg.FixtureFeedEnabled {
		feed := fixturefeed.NewClient(fixturefeed.ClientConfig{
			BaseURL:    cfg.FixtureFeedBaseURL,
			Token:      cfg.FixtureFeedToken,
			Timeout:    cfg.FixtureFeedTimeout,
			MaxRetries: cfg.FixtureFeedMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FixtureFeedCircuitEnabled,
				FailureThreshold: cfg.FixtureFeedCircuitFailureCount,
				OpenTimeout:      cfg.FixtureFeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FixtureFeedCircuitHalfOpenMax,
			},
		})
		ingestSvc = usecase.NewFixtureIngestService(feed, store.fixtureWriter, logger, fixtureIngestConcurrency)
	} else {
		ingestSvc = usecase.NewFixtureIngestService(nil, store.fixtureWriter, logger, fixtureIngestConcurrency)
	}

	handler := httpapi.NewHandler(gameSvc, selectionSvc, eligibilitySvc, resolverSvc, schedulerSvc, ingestSvc, loc, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if store.close != nil {
		server.RegisterOnShutdown(func() {
			if err := store.close(); err != nil {
				logger.Error("close storage", "error", err)
			}
		})
	}

	return server, nil
}

func newStorage(cfg config.Config, logger *logging.Logger) (storage, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		now := time.Now()
		games := memory.NewGameRepository(memory.SeedGames(now))
		participants := memory.NewParticipantRepository(memory.SeedParticipants(now))
		rounds := memory.NewRoundRepository(nil)
		selections := memory.NewSelectionRepository()
		fixtures := memory.NewFixtureRepository(memory.SeedFixtures(now))

		logger.Info("storage ready", "backend", "memory", "seeded", true)
		return storage{
			games:         games,
			participants:  participants,
			rounds:        rounds,
			selections:    selections,
			fixtures:      fixtures,
			fixtureWriter: fixtures,
			writer:        memory.NewResolutionWriter(games, participants, rounds, selections),
		}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return storage{}, err
	}

	if cfg.AppEnv == config.EnvDev {
		seedCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
			_ = db.Close()
			return storage{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	logger.Info("storage ready", "backend", "postgres", "db", dbNameFromURL(cfg.DBURL))
	return storage{
		games:         postgres.NewGameRepository(db),
		participants:  postgres.NewParticipantRepository(db),
		rounds:        postgres.NewRoundRepository(db),
		selections:    postgres.NewSelectionRepository(db),
		fixtures:      postgres.NewFixtureRepository(db),
		fixtureWriter: postgres.NewFixtureRepository(db),
		writer:        postgres.NewResolutionWriter(db),
		close:         db.Close,
	}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
