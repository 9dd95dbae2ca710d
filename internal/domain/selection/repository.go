package selection

import "context"

type Repository interface {
	// Upsert writes the pick for (participant, round), replacing any existing
	// one. At most one selection per pair ever exists.
	Upsert(ctx context.Context, s Selection) error
	GetByParticipantAndRound(ctx context.Context, participantID, roundID string) (Selection, bool, error)
	ListByRound(ctx context.Context, roundID string) ([]Selection, error)
	// ListByGameAndParticipant returns the participant's full pick history for
	// the game, newest last.
	ListByGameAndParticipant(ctx context.Context, gameID, participantID string) ([]Selection, error)
}
