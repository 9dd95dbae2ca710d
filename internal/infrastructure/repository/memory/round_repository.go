package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitchside/lastman/internal/domain/round"
)

type RoundRepository struct {
	mu     sync.RWMutex
	items  map[string]round.Round
	byWeek map[string]string
	orders []string
}

func NewRoundRepository(rounds []round.Round) *RoundRepository {
	items := make(map[string]round.Round, len(rounds))
	byWeek := make(map[string]string, len(rounds))
	orders := make([]string, 0, len(rounds))

	for _, rnd := range rounds {
		items[rnd.ID] = rnd
		byWeek[weekIndex(rnd.GameID, rnd.WeekStart)] = rnd.ID
		orders = append(orders, rnd.ID)
	}

	return &RoundRepository{
		items:  items,
		byWeek: byWeek,
		orders: orders,
	}
}

func weekIndex(gameID string, weekStart time.Time) string {
	return gameID + "|" + round.WeekKey(weekStart)
}

func (r *RoundRepository) CreateIfAbsent(_ context.Context, rnd round.Round) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := weekIndex(rnd.GameID, rnd.WeekStart)
	if _, exists := r.byWeek[key]; exists {
		return false, nil
	}

	r.items[rnd.ID] = rnd
	r.byWeek[key] = rnd.ID
	r.orders = append(r.orders, rnd.ID)

	return true, nil
}

func (r *RoundRepository) Get(_ context.Context, gameID string, weekStart time.Time) (round.Round, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byWeek[weekIndex(gameID, weekStart)]
	if !ok {
		return round.Round{}, false, nil
	}

	return r.items[id], true, nil
}

func (r *RoundRepository) ListByGame(_ context.Context, gameID string) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0, len(r.orders))
	for _, id := range r.orders {
		rnd := r.items[id]
		if rnd.GameID == gameID {
			out = append(out, rnd)
		}
	}

	return out, nil
}

func (r *RoundRepository) Claim(_ context.Context, gameID string, weekStart time.Time, claimedAt time.Time, staleBefore time.Time) (round.Round, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byWeek[weekIndex(gameID, weekStart)]
	if !ok {
		return round.Round{}, false, nil
	}

	rnd := r.items[id]
	switch rnd.Status {
	case round.StatusPending:
	case round.StatusResolving:
		// A stale claim is re-claimable past the grace window.
		if rnd.ClaimedAt != nil && rnd.ClaimedAt.After(staleBefore) {
			return round.Round{}, false, nil
		}
	default:
		return round.Round{}, false, nil
	}

	rnd.Status = round.StatusResolving
	claimCopy := claimedAt
	rnd.ClaimedAt = &claimCopy
	r.items[id] = rnd

	return rnd, true, nil
}

func (r *RoundRepository) Release(_ context.Context, roundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rnd, ok := r.items[roundID]
	if !ok {
		return errors.New("round not found")
	}
	if rnd.Status != round.StatusResolving {
		return nil
	}

	rnd.Status = round.StatusPending
	rnd.ClaimedAt = nil
	r.items[roundID] = rnd

	return nil
}

func (r *RoundRepository) markResolved(roundID string, resolvedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rnd, ok := r.items[roundID]
	if !ok {
		return
	}
	rnd.Status = round.StatusResolved
	resolvedCopy := resolvedAt
	rnd.ResolvedAt = &resolvedCopy
	rnd.ClaimedAt = nil
	r.items[roundID] = rnd
}
