package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// ExpirySweeper cancels open games that never filled. It drives the
// ordinary cancel path, so stale wagers get refunded the same way a
// manual cancellation would refund them.
type ExpirySweeper struct {
	gameRepo repositories.GameRepository
	lobby    LobbyService
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger

	scheduler gocron.Scheduler
}

func NewExpirySweeper(
	gameRepo repositories.GameRepository,
	lobby LobbyService,
	maxAge time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		gameRepo: gameRepo,
		lobby:    lobby,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// sweeperActor cancels on behalf of the system; moderator rights let it
// cancel games it did not create.
var sweeperActor = Actor{ID: "system", Role: models.RoleModerator}

func (s *ExpirySweeper) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			defer cancel()
			s.Sweep(ctx)
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("expiry sweeper started",
		slog.Duration("interval", s.interval),
		slog.Duration("max_age", s.maxAge))
	return nil
}

func (s *ExpirySweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// Sweep cancels every open game older than maxAge. A single stuck game
// does not stop the rest of the batch.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	cutoff := sql.NullTime{Time: time.Now().Add(-s.maxAge), Valid: true}
	games, err := s.gameRepo.ListOpenBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("expiry sweep query failed", slog.Any("error", err))
		return
	}

	for _, game := range games {
		if err := s.lobby.Cancel(ctx, game.ID, sweeperActor); err != nil {
			s.logger.Error("failed to cancel stale game",
				slog.String("game_id", game.ID),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("cancelled stale open game",
			slog.String("game_id", game.ID),
			slog.Time("created_at", game.CreatedAt))
	}
}
