package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
)

type FixtureRepository struct {
	mu     sync.RWMutex
	items  map[string]fixture.Fixture
	orders []string
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	orders := make([]string, 0, len(fixtures))

	for _, fx := range fixtures {
		items[fx.ID] = fx
		orders = append(orders, fx.ID)
	}

	return &FixtureRepository{
		items:  items,
		orders: orders,
	}
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fx, ok := r.items[fixtureID]
	if !ok {
		return fixture.Fixture{}, false, nil
	}

	return fx, true, nil
}

func (r *FixtureRepository) ListByCompetitionsBetween(_ context.Context, competitionKeys []string, from, to time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(competitionKeys))
	for _, key := range competitionKeys {
		wanted[key] = struct{}{}
	}

	out := make([]fixture.Fixture, 0, len(r.orders))
	for _, id := range r.orders {
		fx := r.items[id]
		if _, ok := wanted[fx.CompetitionKey()]; !ok {
			continue
		}
		if fx.KickoffAt.Before(from) || !fx.KickoffAt.Before(to) {
			continue
		}
		out = append(out, fx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].KickoffAt.Before(out[j].KickoffAt)
	})

	return out, nil
}

func (r *FixtureRepository) Upsert(_ context.Context, fixtures []fixture.Fixture) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fx := range fixtures {
		if _, exists := r.items[fx.ID]; !exists {
			r.orders = append(r.orders, fx.ID)
		}
		r.items[fx.ID] = fx
	}

	return len(fixtures), nil
}
