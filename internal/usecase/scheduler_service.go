package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pitchside/lastman/internal/domain/game"
	"github.com/pitchside/lastman/internal/domain/round"
	idgen "github.com/pitchside/lastman/internal/platform/id"
	"github.com/pitchside/lastman/internal/platform/logging"
)

// GameScheduleFailure is one game the rollover could not process. Failures
// never abort the sweep; they are collected and reported.
type GameScheduleFailure struct {
	GameID string
	Reason string
}

// RolloverResult summarizes one weekly sweep.
type RolloverResult struct {
	WeekStart     time.Time
	GamesSeen     int
	RoundsCreated int
	Activated     int
	Enqueued      int
	Failures      []GameScheduleFailure
}

// roundJobEnqueuer defers round resolution to an external job queue. Nil
// means resolution is left to direct /process-round calls.
type roundJobEnqueuer interface {
	EnqueueProcessRound(ctx context.Context, gameID string, weekStart time.Time) error
}

// SchedulerService materializes the weekly round for every live game. The
// sweep is idempotent: rounds that already exist are left untouched.
type SchedulerService struct {
	gameRepo   game.Repository
	roundRepo  round.Repository
	idGen      idgen.Generator
	enqueuer   roundJobEnqueuer
	logger     *logging.Logger
	loc        *time.Location
	maxWorkers int
	now        func() time.Time
}

func NewSchedulerService(
	gameRepo game.Repository,
	roundRepo round.Repository,
	idGen idgen.Generator,
	enqueuer roundJobEnqueuer,
	logger *logging.Logger,
	loc *time.Location,
	maxWorkers int,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &SchedulerService{
		gameRepo:   gameRepo,
		roundRepo:  roundRepo,
		idGen:      idGen,
		enqueuer:   enqueuer,
		logger:     logger,
		loc:        loc,
		maxWorkers: maxWorkers,
		now:        time.Now,
	}
}

// EnsureRounds runs the weekly rollover for the week containing now: every
// open or active game whose start date has been reached gets a pending round
// for the current Monday, open games past their start date flip to active.
func (s *SchedulerService) EnsureRounds(ctx context.Context) (RolloverResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SchedulerService.EnsureRounds")
	defer span.End()

	now := s.now()
	weekStart := MondayOf(now, s.loc)

	games, err := s.gameRepo.ListByStatus(ctx, game.StatusOpen, game.StatusActive)
	if err != nil {
		return RolloverResult{}, fmt.Errorf("list live games: %w", err)
	}

	result := RolloverResult{WeekStart: weekStart, GamesSeen: len(games)}
	if len(games) == 0 {
		return result, nil
	}

	var created atomic.Int32
	var activated atomic.Int32
	var enqueued atomic.Int32

	failures := make(chan GameScheduleFailure, len(games))

	pool, err := ants.NewPool(s.maxWorkers)
	if err != nil {
		return RolloverResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, g := range games {
		g := g
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			didCreate, didActivate, didEnqueue, err := s.scheduleGame(ctx, g, weekStart)
			if err != nil {
				failures <- GameScheduleFailure{GameID: g.ID, Reason: err.Error()}
				return
			}
			if didCreate {
				created.Add(1)
			}
			if didActivate {
				activated.Add(1)
			}
			if didEnqueue {
				enqueued.Add(1)
			}
		}); err != nil {
			workers.Done()
			return RolloverResult{}, fmt.Errorf("submit game to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(failures)

	for failure := range failures {
		result.Failures = append(result.Failures, failure)
	}
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].GameID < result.Failures[j].GameID
	})

	result.RoundsCreated = int(created.Load())
	result.Activated = int(activated.Load())
	result.Enqueued = int(enqueued.Load())

	s.logger.InfoContext(ctx, "weekly rollover finished",
		"week_start", round.WeekKey(weekStart),
		"games_seen", result.GamesSeen,
		"rounds_created", result.RoundsCreated,
		"activated", result.Activated,
		"enqueued", result.Enqueued,
		"failures", len(result.Failures),
	)

	return result, nil
}

func (s *SchedulerService) scheduleGame(ctx context.Context, g game.Game, weekStart time.Time) (created, activated, enqueued bool, err error) {
	// Games whose first round lies in a future week have nothing to schedule.
	if g.StartDate.After(weekStart) {
		return false, false, false, nil
	}

	if g.Status == game.StatusOpen {
		if err := s.gameRepo.UpdateStatus(ctx, g.ID, game.StatusActive); err != nil {
			return false, false, false, fmt.Errorf("activate game: %w", err)
		}
		activated = true
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return false, activated, false, fmt.Errorf("generate round id: %w", err)
	}
	created, err = s.roundRepo.CreateIfAbsent(ctx, round.Round{
		ID:        id,
		GameID:    g.ID,
		WeekStart: weekStart,
		Status:    round.StatusPending,
	})
	if err != nil {
		return false, activated, false, fmt.Errorf("ensure round: %w", err)
	}

	// The previous week's round, if still unresolved, is handed to the job
	// queue so results get applied without waiting for an operator call.
	if s.enqueuer != nil {
		prevWeek := weekStart.AddDate(0, 0, -7)
		if !g.StartDate.After(prevWeek) {
			prev, exists, err := s.roundRepo.Get(ctx, g.ID, prevWeek)
			if err != nil {
				return created, activated, false, fmt.Errorf("get previous round: %w", err)
			}
			if exists && prev.Status != round.StatusResolved {
				if err := s.enqueuer.EnqueueProcessRound(ctx, g.ID, prevWeek); err != nil {
					return created, activated, false, fmt.Errorf("enqueue process-round: %w", err)
				}
				enqueued = true
			}
		}
	}

	return created, activated, enqueued, nil
}
