package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/internal/queue"
	"github.com/Manas2412/8Byte/internal/repository"
	"github.com/Manas2412/8Byte/pkg/models"
)

// Rebuilder abstracts the snapshot rebuild path shared with the serving path.
type Rebuilder interface {
	Rebuild(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)
}

// Worker drains the refresh queue in bounded batches with a fixed delay
// between batches. The delay is the system's load-shedding knob toward the
// upstream quote providers.
type Worker struct {
	queue     queue.RefreshQueue
	holdings  repository.HoldingsStore
	rebuilder Rebuilder
	logger    *zap.Logger

	consumer       string
	batchSize      int64
	blockTimeout   time.Duration
	batchDelay     time.Duration
	messageTimeout time.Duration
}

func New(
	q queue.RefreshQueue,
	holdings repository.HoldingsStore,
	rebuilder Rebuilder,
	logger *zap.Logger,
	batchSize int,
	blockTimeout, batchDelay, messageTimeout time.Duration,
) *Worker {
	if messageTimeout <= 0 {
		messageTimeout = 30 * time.Second
	}
	return &Worker{
		queue:          q,
		holdings:       holdings,
		rebuilder:      rebuilder,
		logger:         logger,
		consumer:       consumerName(),
		batchSize:      int64(batchSize),
		blockTimeout:   blockTimeout,
		batchDelay:     batchDelay,
		messageTimeout: messageTimeout,
	}
}

// consumerName keeps additional processes joining the group distinct without
// configuration.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// Run consumes until the context is cancelled. Every message is acknowledged
// whether or not its rebuild succeeded: errors are logged, never left
// pending, so one bad identifier cannot stall the queue. An in-flight batch
// always finishes acking before Run returns.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("refresh worker started",
		zap.String("consumer", w.consumer),
		zap.Int64("batch_size", w.batchSize),
		zap.Duration("batch_delay", w.batchDelay))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopped")
			return
		default:
		}

		msgs, err := w.queue.ReadBatch(ctx, w.consumer, w.batchSize, w.blockTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("refresh worker stopped")
				return
			}
			w.logger.Error("refresh batch read failed", zap.Error(err))
			w.sleep(ctx, w.blockTimeout)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		for _, msg := range msgs {
			w.process(msg)
		}

		w.sleep(ctx, w.batchDelay)
	}
}

// process rebuilds one user's snapshot. The context is rooted in Background
// so a shutdown mid-batch cannot orphan a processed message, but it carries a
// deadline: one hung store connection must not stall the loop indefinitely.
func (w *Worker) process(msg models.RefreshMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), w.messageTimeout)
	defer cancel()

	exists, err := w.holdings.UserExists(ctx, msg.UserID)
	switch {
	case err != nil:
		w.logger.Error("user lookup failed", zap.String("user_id", msg.UserID), zap.Error(err))
	case !exists:
		w.logger.Debug("skipping refresh for deleted user", zap.String("user_id", msg.UserID))
	default:
		if _, err := w.rebuilder.Rebuild(ctx, msg.UserID); err != nil {
			w.logger.Error("queued rebuild failed", zap.String("user_id", msg.UserID), zap.Error(err))
		} else {
			w.logger.Debug("queued rebuild complete", zap.String("user_id", msg.UserID))
		}
	}

	if err := w.queue.Ack(ctx, msg.StreamID); err != nil {
		// Redelivery is harmless: rebuilds are idempotent whole-document writes
		w.logger.Error("ack failed", zap.String("stream_id", msg.StreamID), zap.Error(err))
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
