package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pitchside/lastman/internal/domain/selection"
)

type SelectionRepository struct {
	mu     sync.RWMutex
	items  map[string]selection.Selection
	byPair map[string]string
	orders []string
}

func NewSelectionRepository() *SelectionRepository {
	return &SelectionRepository{
		items:  make(map[string]selection.Selection),
		byPair: make(map[string]string),
	}
}

func pairIndex(participantID, roundID string) string {
	return participantID + "|" + roundID
}

func (r *SelectionRepository) Upsert(_ context.Context, s selection.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertLocked(s)
	return nil
}

func (r *SelectionRepository) upsertLocked(s selection.Selection) {
	key := pairIndex(s.ParticipantID, s.RoundID)
	if existingID, exists := r.byPair[key]; exists {
		if existingID != s.ID {
			delete(r.items, existingID)
			for i, id := range r.orders {
				if id == existingID {
					r.orders[i] = s.ID
					break
				}
			}
		}
	} else {
		r.orders = append(r.orders, s.ID)
	}

	r.items[s.ID] = s
	r.byPair[key] = s.ID
}

func (r *SelectionRepository) GetByParticipantAndRound(_ context.Context, participantID, roundID string) (selection.Selection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pairIndex(participantID, roundID)]
	if !ok {
		return selection.Selection{}, false, nil
	}

	return r.items[id], true, nil
}

func (r *SelectionRepository) ListByRound(_ context.Context, roundID string) ([]selection.Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]selection.Selection, 0, len(r.orders))
	for _, id := range r.orders {
		s := r.items[id]
		if s.RoundID == roundID {
			out = append(out, s)
		}
	}

	return out, nil
}

func (r *SelectionRepository) ListByGameAndParticipant(_ context.Context, gameID, participantID string) ([]selection.Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]selection.Selection, 0, len(r.orders))
	for _, id := range r.orders {
		s := r.items[id]
		if s.GameID == gameID && s.ParticipantID == participantID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})

	return out, nil
}

func (r *SelectionRepository) applyResolution(synthetics []selection.Selection, resultByID map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range synthetics {
		r.upsertLocked(s)
	}
	for id, result := range resultByID {
		s, ok := r.items[id]
		if !ok {
			continue
		}
		s.Result = result
		r.items[id] = s
	}
}
