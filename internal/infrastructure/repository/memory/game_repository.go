package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/pitchside/lastman/internal/domain/game"
)

// errDuplicate mimics the postgres unique-violation text so the usecase
// layer's duplicate detection behaves the same against both stores.
var errDuplicate = errors.New("duplicate key value violates unique constraint")

type GameRepository struct {
	mu     sync.RWMutex
	items  map[string]game.Game
	byCode map[string]string
	orders []string
}

func NewGameRepository(games []game.Game) *GameRepository {
	items := make(map[string]game.Game, len(games))
	byCode := make(map[string]string, len(games))
	orders := make([]string, 0, len(games))

	for _, g := range games {
		items[g.ID] = g
		byCode[g.Code] = g.ID
		orders = append(orders, g.ID)
	}

	return &GameRepository{
		items:  items,
		byCode: byCode,
		orders: orders,
	}
}

func (r *GameRepository) Create(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[g.ID]; exists {
		return errDuplicate
	}
	if _, exists := r.byCode[g.Code]; exists {
		return errDuplicate
	}

	r.items[g.ID] = g
	r.byCode[g.Code] = g.ID
	r.orders = append(r.orders, g.ID)

	return nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[gameID]
	if !ok {
		return game.Game{}, false, nil
	}

	return g, true, nil
}

func (r *GameRepository) GetByCode(_ context.Context, code string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return game.Game{}, false, nil
	}

	return r.items[id], true, nil
}

func (r *GameRepository) ListByStatus(_ context.Context, statuses ...string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	out := make([]game.Game, 0, len(r.orders))
	for _, id := range r.orders {
		g := r.items[id]
		if _, ok := wanted[g.Status]; ok {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) ListPublicOpen(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.orders))
	for _, id := range r.orders {
		g := r.items[id]
		if g.Public && g.Status == game.StatusOpen {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) UpdateStatus(_ context.Context, gameID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[gameID]
	if !ok {
		return errors.New("game not found")
	}
	g.Status = status
	r.items[gameID] = g

	return nil
}

// SetWinner records the winner on completion. The resolution writer is the
// only caller.
func (r *GameRepository) SetWinner(gameID string, winnerUserID *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[gameID]
	if !ok {
		return
	}
	g.WinnerUserID = winnerUserID
	r.items[gameID] = g
}
