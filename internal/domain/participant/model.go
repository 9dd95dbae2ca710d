package participant

import "time"

// Participant is one user's membership and survival state within one game.
// Rows are never deleted once a game starts; elimination is recorded, not removal.
type Participant struct {
	ID             string
	GameID         string
	UserID         string
	Eliminated     bool
	EliminatedWeek *time.Time
	JoinedAt       time.Time
}
