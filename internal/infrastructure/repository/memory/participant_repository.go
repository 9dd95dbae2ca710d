package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pitchside/lastman/internal/domain/participant"
)

type ParticipantRepository struct {
	mu     sync.RWMutex
	items  map[string]participant.Participant
	orders []string
}

func NewParticipantRepository(participants []participant.Participant) *ParticipantRepository {
	items := make(map[string]participant.Participant, len(participants))
	orders := make([]string, 0, len(participants))

	for _, p := range participants {
		items[p.ID] = p
		orders = append(orders, p.ID)
	}

	return &ParticipantRepository{
		items:  items,
		orders: orders,
	}
}

func (r *ParticipantRepository) Create(_ context.Context, p participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; exists {
		return errDuplicate
	}
	for _, id := range r.orders {
		existing := r.items[id]
		if existing.GameID == p.GameID && existing.UserID == p.UserID {
			return errDuplicate
		}
	}

	r.items[p.ID] = p
	r.orders = append(r.orders, p.ID)

	return nil
}

func (r *ParticipantRepository) GetByGameAndUser(_ context.Context, gameID, userID string) (participant.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		p := r.items[id]
		if p.GameID == gameID && p.UserID == userID {
			return p, true, nil
		}
	}

	return participant.Participant{}, false, nil
}

func (r *ParticipantRepository) ListByGame(_ context.Context, gameID string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(r.orders))
	for _, id := range r.orders {
		p := r.items[id]
		if p.GameID == gameID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *ParticipantRepository) ListActiveByGame(_ context.Context, gameID string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(r.orders))
	for _, id := range r.orders {
		p := r.items[id]
		if p.GameID == gameID && !p.Eliminated {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *ParticipantRepository) CountByGame(_ context.Context, gameID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, id := range r.orders {
		if r.items[id].GameID == gameID {
			count++
		}
	}

	return count, nil
}

func (r *ParticipantRepository) markEliminated(ids []string, week time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		p, ok := r.items[id]
		if !ok {
			continue
		}
		p.Eliminated = true
		weekCopy := week
		p.EliminatedWeek = &weekCopy
		r.items[id] = p
	}
}
