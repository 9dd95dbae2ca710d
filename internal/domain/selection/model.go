package selection

import (
	"strings"
	"time"
)

// TeamDraw is the explicit draw marker pick, only legal when the game is
// configured with include_draws. Draw picks and team picks are mutually
// exclusive pick types.
const TeamDraw = "DRAW"

const (
	ResultPending = ""
	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultVoid    = "void"
)

// Selection is one participant's pick for one round.
type Selection struct {
	ID            string
	GameID        string
	RoundID       string
	ParticipantID string
	Team          string
	FixtureID     string
	Result        string
	Synthetic     bool
	SubmittedAt   time.Time
}

func (s Selection) IsDrawPick() bool {
	return strings.EqualFold(strings.TrimSpace(s.Team), TeamDraw)
}

// CountsAsUsed reports whether the pick consumes the team for future rounds.
// Voided picks are refunded.
func (s Selection) CountsAsUsed() bool {
	return s.Result != ResultVoid
}
