package memory

import (
	"time"

	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/participant"
)

const (
	GameIDDemoPool = "demo-pool-0001"

	CompetitionPremierLeague = "premier-league"
	CompetitionChampionship  = "championship"
)

// SeedGames provides a joinable demo pool for DB-less development. The start
// date is a Monday far enough out that the entry window stays open.
func SeedGames(now time.Time) []game.Game {
	weekday := (int(now.Weekday()) + 6) % 7
	nextMonday := now.AddDate(0, 0, 14-weekday)
	startDate := time.Date(nextMonday.Year(), nextMonday.Month(), nextMonday.Day(), 0, 0, 0, 0, now.Location())

	return []game.Game{
		{
			ID:               GameIDDemoPool,
			Code:             "DEMO2345",
			Name:             "Demo Survival Pool",
			CreatedBy:        "user-demo-owner",
			StartDate:        startDate,
			ClosingEntryDate: startDate.AddDate(0, 0, -1),
			EntryFeePence:    500,
			MinPlayers:       2,
			Competitions: []game.Competition{
				{CountryCode: "GB", CompetitionID: CompetitionPremierLeague},
			},
			MissedRule:   game.RuleEliminate,
			IncludeDraws: false,
			Public:       true,
			Status:       game.StatusOpen,
		},
	}
}

func SeedParticipants(now time.Time) []participant.Participant {
	return []participant.Participant{
		{ID: "demo-participant-owner", GameID: GameIDDemoPool, UserID: "user-demo-owner", JoinedAt: now},
	}
}

// SeedFixtures covers the demo pool's first playable week.
func SeedFixtures(now time.Time) []fixture.Fixture {
	weekday := (int(now.Weekday()) + 6) % 7
	nextMonday := now.AddDate(0, 0, 14-weekday)
	saturday := time.Date(nextMonday.Year(), nextMonday.Month(), nextMonday.Day(), 15, 0, 0, 0, now.Location()).AddDate(0, 0, 5)

	return []fixture.Fixture{
		{
			ID:            "demo-fx-001",
			CountryCode:   "GB",
			CompetitionID: CompetitionPremierLeague,
			Season:        "2026/2027",
			HomeTeam:      "Arsenal",
			AwayTeam:      "Liverpool",
			KickoffAt:     saturday,
			Status:        fixture.StatusScheduled,
		},
		{
			ID:            "demo-fx-002",
			CountryCode:   "GB",
			CompetitionID: CompetitionPremierLeague,
			Season:        "2026/2027",
			HomeTeam:      "Everton",
			AwayTeam:      "Fulham",
			KickoffAt:     saturday.Add(2 * time.Hour),
			Status:        fixture.StatusScheduled,
		},
		{
			ID:            "demo-fx-003",
			CountryCode:   "GB",
			CompetitionID: CompetitionPremierLeague,
			Season:        "2026/2027",
			HomeTeam:      "Newcastle United",
			AwayTeam:      "Brentford",
			KickoffAt:     saturday.AddDate(0, 0, 1),
			Status:        fixture.StatusScheduled,
		},
	}
}
