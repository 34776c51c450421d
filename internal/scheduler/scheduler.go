package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// UserLister enumerates users that currently hold positions.
type UserLister interface {
	UsersWithHoldings(ctx context.Context) ([]string, error)
}

// Enqueuer is the refresh queue's producer side.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID string) (string, error)
}

// Scheduler enqueues every user with holdings on a fixed interval, keeping
// the cache warm. It performs no cache writes itself; all rebuilding is
// delegated to the queue worker.
type Scheduler struct {
	cron    *gocron.Scheduler
	users   UserLister
	queue   Enqueuer
	logger  *zap.Logger
	timeout time.Duration
}

func New(users UserLister, queue Enqueuer, logger *zap.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		users:   users,
		queue:   queue,
		logger:  logger,
		timeout: timeout,
	}
}

// Start registers the tick and runs it asynchronously.
func (s *Scheduler) Start(interval time.Duration) error {
	if _, err := s.cron.Every(interval).Do(s.tick); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.logger.Info("refresh scheduler started", zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("refresh scheduler stopped")
}

// tick enumerates and enqueues. Any failure is logged and the tick is
// skipped; the interval timer itself survives and fires again next period.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	users, err := s.users.UsersWithHoldings(ctx)
	if err != nil {
		s.logger.Error("user enumeration failed, skipping tick", zap.Error(err))
		return
	}

	enqueued := 0
	for _, userID := range users {
		if _, err := s.queue.Enqueue(ctx, userID); err != nil {
			s.logger.Warn("scheduled enqueue failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		enqueued++
	}
	s.logger.Debug("scheduler tick complete", zap.Int("users", len(users)), zap.Int("enqueued", enqueued))
}
