package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/platform/logging"
)

// fixtureFeed is the upstream provider of fixtures and results.
type fixtureFeed interface {
	FixturesBetween(ctx context.Context, countryCode, competitionID string, from, to time.Time) ([]fixture.Fixture, error)
}

type SyncFixturesInput struct {
	Competitions []game.Competition
	From         time.Time
	To           time.Time
}

// CompetitionSyncResult is the outcome of syncing one competition.
type CompetitionSyncResult struct {
	Competition game.Competition
	Fetched     int
	Upserted    int
	Error       string
}

type SyncFixturesResult struct {
	Competitions []CompetitionSyncResult
	Upserted     int
	Failed       int
}

// FixtureIngestService pulls fixtures from the upstream feed and lands them
// in local storage. Competitions sync concurrently; one failing competition
// never blocks the others.
type FixtureIngestService struct {
	feed          fixtureFeed
	fixtureWriter fixture.Writer
	logger        *logging.Logger
	maxConcurrent int
}

func NewFixtureIngestService(feed fixtureFeed, fixtureWriter fixture.Writer, logger *logging.Logger, maxConcurrent int) *FixtureIngestService {
	if logger == nil {
		logger = logging.Default()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &FixtureIngestService{
		feed:          feed,
		fixtureWriter: fixtureWriter,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// SyncFixtures fetches and upserts fixtures for every given competition in
// [From, To).
func (s *FixtureIngestService) SyncFixtures(ctx context.Context, input SyncFixturesInput) (SyncFixturesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureIngestService.SyncFixtures")
	defer span.End()

	if s.feed == nil {
		return SyncFixturesResult{}, fmt.Errorf("%w: fixture feed is not configured", ErrDependencyUnavailable)
	}
	if len(input.Competitions) == 0 {
		return SyncFixturesResult{}, fmt.Errorf("%w: competitions are required", ErrInvalidInput)
	}
	if input.From.IsZero() || input.To.IsZero() || !input.To.After(input.From) {
		return SyncFixturesResult{}, fmt.Errorf("%w: a non-empty [from, to) window is required", ErrInvalidInput)
	}

	var mu sync.Mutex
	rows := make([]CompetitionSyncResult, 0, len(input.Competitions))

	workers := pool.New().WithMaxGoroutines(s.maxConcurrent)
	for _, comp := range input.Competitions {
		comp := comp
		workers.Go(func() {
			row := s.syncCompetition(ctx, comp, input.From, input.To)
			mu.Lock()
			rows = append(rows, row)
			mu.Unlock()
		})
	}
	workers.Wait()

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Competition.Key() < rows[j].Competition.Key()
	})

	result := SyncFixturesResult{Competitions: rows}
	for _, row := range rows {
		result.Upserted += row.Upserted
		if row.Error != "" {
			result.Failed++
		}
	}

	s.logger.InfoContext(ctx, "fixture sync finished",
		"competitions", len(rows),
		"upserted", result.Upserted,
		"failed", result.Failed,
	)

	return result, nil
}

func (s *FixtureIngestService) syncCompetition(ctx context.Context, comp game.Competition, from, to time.Time) CompetitionSyncResult {
	row := CompetitionSyncResult{Competition: comp}

	fixtures, err := s.feed.FixturesBetween(ctx, comp.CountryCode, comp.CompetitionID, from, to)
	if err != nil {
		row.Error = fmt.Sprintf("fetch fixtures: %v", err)
		return row
	}
	row.Fetched = len(fixtures)
	if len(fixtures) == 0 {
		return row
	}

	for idx := range fixtures {
		fixtures[idx].ID = strings.TrimSpace(fixtures[idx].ID)
		fixtures[idx].CountryCode = strings.ToUpper(strings.TrimSpace(fixtures[idx].CountryCode))
		fixtures[idx].CompetitionID = strings.ToLower(strings.TrimSpace(fixtures[idx].CompetitionID))
		fixtures[idx].HomeTeam = strings.TrimSpace(fixtures[idx].HomeTeam)
		fixtures[idx].AwayTeam = strings.TrimSpace(fixtures[idx].AwayTeam)
		fixtures[idx].Status = fixture.NormalizeStatus(fixtures[idx].Status)
		if fixtures[idx].ID == "" || fixtures[idx].HomeTeam == "" || fixtures[idx].AwayTeam == "" {
			row.Error = "fixture rows require id, home team and away team"
			return row
		}
	}

	upserted, err := s.fixtureWriter.Upsert(ctx, fixtures)
	if err != nil {
		row.Error = fmt.Sprintf("upsert fixtures: %v", err)
		return row
	}
	row.Upserted = upserted

	return row
}
