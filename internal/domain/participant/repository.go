package participant

import "context"

type Repository interface {
	Create(ctx context.Context, p Participant) error
	GetByGameAndUser(ctx context.Context, gameID, userID string) (Participant, bool, error)
	ListByGame(ctx context.Context, gameID string) ([]Participant, error)
	ListActiveByGame(ctx context.Context, gameID string) ([]Participant, error)
	CountByGame(ctx context.Context, gameID string) (int, error)
}
