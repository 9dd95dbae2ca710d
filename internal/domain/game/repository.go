package game

import "context"

// Repository exposes game persistence operations.
type Repository interface {
	Create(ctx context.Context, g Game) error
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	GetByCode(ctx context.Context, code string) (Game, bool, error)
	ListByStatus(ctx context.Context, statuses ...string) ([]Game, error)
	ListPublicOpen(ctx context.Context) ([]Game, error)
	UpdateStatus(ctx context.Context, gameID, status string) error
}
