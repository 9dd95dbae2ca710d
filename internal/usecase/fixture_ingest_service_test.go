package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/infrastructure/repository/memory"
	"github.com/pitchside/lastman/internal/platform/logging"
)

type fakeFeed struct {
	byCompetition map[string][]fixture.Fixture
	failFor       map[string]error
}

func (f *fakeFeed) FixturesBetween(_ context.Context, countryCode, competitionID string, _, _ time.Time) ([]fixture.Fixture, error) {
	key := countryCode + ":" + competitionID
	if err, ok := f.failFor[key]; ok {
		return nil, err
	}
	return f.byCompetition[key], nil
}

func feedFixture(id, comp, home, away, status string) fixture.Fixture {
	return fixture.Fixture{
		ID:            id,
		CountryCode:   "gb",
		CompetitionID: comp,
		HomeTeam:      home,
		AwayTeam:      away,
		KickoffAt:     testSaturday,
		Status:        status,
	}
}

func TestFixtureIngestService_SyncNormalizesAndStores(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{byCompetition: map[string][]fixture.Fixture{
		"GB:premier-league": {
			feedFixture("fx-1", "Premier-League", "  Arsenal ", "Liverpool", "FT"),
			feedFixture("fx-2", "Premier-League", "Everton", "Fulham", "NS"),
		},
	}}
	store := memory.NewFixtureRepository(nil)

	svc := NewFixtureIngestService(feed, store, logging.NewNop(), 2)
	result, err := svc.SyncFixtures(context.Background(), SyncFixturesInput{
		Competitions: []game.Competition{{CountryCode: "GB", CompetitionID: "premier-league"}},
		From:         testWeekStart,
		To:           WeekEnd(testWeekStart),
	})
	if err != nil {
		t.Fatalf("sync fixtures: %v", err)
	}
	if result.Upserted != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	fx, found, err := store.GetByID(context.Background(), "fx-1")
	if err != nil || !found {
		t.Fatalf("stored fixture missing: found=%v err=%v", found, err)
	}
	if fx.HomeTeam != "Arsenal" {
		t.Fatalf("expected trimmed home team, got %q", fx.HomeTeam)
	}
	if fx.CountryCode != "GB" || fx.CompetitionID != "premier-league" {
		t.Fatalf("expected normalized competition key, got %s:%s", fx.CountryCode, fx.CompetitionID)
	}
	if fx.Status != fixture.StatusCompleted {
		t.Fatalf("expected FT mapped to completed, got %q", fx.Status)
	}
}

func TestFixtureIngestService_OneCompetitionFailingDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{
		byCompetition: map[string][]fixture.Fixture{
			"GB:premier-league": {feedFixture("fx-1", "premier-league", "Arsenal", "Liverpool", "NS")},
		},
		failFor: map[string]error{
			"GB:championship": errors.New("upstream 502"),
		},
	}
	store := memory.NewFixtureRepository(nil)

	svc := NewFixtureIngestService(feed, store, logging.NewNop(), 2)
	result, err := svc.SyncFixtures(context.Background(), SyncFixturesInput{
		Competitions: []game.Competition{
			{CountryCode: "GB", CompetitionID: "premier-league"},
			{CountryCode: "GB", CompetitionID: "championship"},
		},
		From: testWeekStart,
		To:   WeekEnd(testWeekStart),
	})
	if err != nil {
		t.Fatalf("sync fixtures: %v", err)
	}
	if result.Failed != 1 || result.Upserted != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Rows come back sorted by competition key.
	if len(result.Competitions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Competitions))
	}
	if result.Competitions[0].Competition.CompetitionID != "championship" || result.Competitions[0].Error == "" {
		t.Fatalf("expected championship failure first, got %+v", result.Competitions[0])
	}
	if result.Competitions[1].Error != "" {
		t.Fatalf("expected premier-league success, got %+v", result.Competitions[1])
	}
}

func TestFixtureIngestService_InputValidation(t *testing.T) {
	t.Parallel()

	svc := NewFixtureIngestService(&fakeFeed{}, memory.NewFixtureRepository(nil), logging.NewNop(), 2)

	if _, err := svc.SyncFixtures(context.Background(), SyncFixturesInput{
		From: testWeekStart,
		To:   WeekEnd(testWeekStart),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without competitions, got %v", err)
	}

	if _, err := svc.SyncFixtures(context.Background(), SyncFixturesInput{
		Competitions: []game.Competition{{CountryCode: "GB", CompetitionID: "premier-league"}},
		From:         WeekEnd(testWeekStart),
		To:           testWeekStart,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted window, got %v", err)
	}

	missing := NewFixtureIngestService(nil, memory.NewFixtureRepository(nil), logging.NewNop(), 2)
	if _, err := missing.SyncFixtures(context.Background(), SyncFixturesInput{
		Competitions: []game.Competition{{CountryCode: "GB", CompetitionID: "premier-league"}},
		From:         testWeekStart,
		To:           WeekEnd(testWeekStart),
	}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
