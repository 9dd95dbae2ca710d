package fixture

import (
	"context"
	"time"
)

// Repository exposes fixture reads. The engine never mutates fixtures; only
// the ingestion path writes them, through the separate Writer interface.
type Repository interface {
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	// ListByCompetitionsBetween returns fixtures kicking off in [from, to)
	// for any of the given competition keys (see Fixture.CompetitionKey).
	ListByCompetitionsBetween(ctx context.Context, competitionKeys []string, from, to time.Time) ([]Fixture, error)
}

// Writer is the ingestion-side interface.
type Writer interface {
	Upsert(ctx context.Context, fixtures []Fixture) (int, error)
}
