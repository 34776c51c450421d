package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/internal/repository"
	"github.com/Manas2412/8Byte/pkg/models"
)

// QuoteFetcher abstracts the provider fallback chain.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol, exchange string) models.Quote
}

// Enqueuer abstracts the refresh queue's producer side.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID string) (string, error)
}

// Service is the serving path: read the cache, rebuild on stale or miss,
// then hand the user off to the refresh queue in the background.
type Service struct {
	holdings  repository.HoldingsStore
	snapshots repository.SnapshotStore
	fetcher   QuoteFetcher
	queue     Enqueuer // nil when the queue backend is unavailable
	logger    *zap.Logger

	enqueueTimeout time.Duration
}

func NewService(
	holdings repository.HoldingsStore,
	snapshots repository.SnapshotStore,
	fetcher QuoteFetcher,
	queue Enqueuer,
	logger *zap.Logger,
) *Service {
	return &Service{
		holdings:       holdings,
		snapshots:      snapshots,
		fetcher:        fetcher,
		queue:          queue,
		logger:         logger,
		enqueueTimeout: 5 * time.Second,
	}
}

// GetOrBuild returns the cached snapshot when it is fresh and live,
// otherwise rebuilds synchronously. Either way the user is submitted to the
// refresh queue after the response is determined; that hand-off is
// fire-and-forget and its failure never reaches the caller.
//
// Only a persistent-store failure is returned as an error: the caller gets
// an explicit failure rather than a wrong answer.
func (s *Service) GetOrBuild(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		// Cache store down: treat as a miss and keep serving
		s.logger.Warn("snapshot cache read failed", zap.String("user_id", userID), zap.Error(err))
	} else if snap != nil && models.IsLive(snap) {
		return snap, nil
	}

	snap, err = s.Rebuild(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.enqueueRefresh(userID)
	return snap, nil
}

// Rebuild loads holdings, fetches a quote per holding concurrently, computes
// the snapshot and writes it to the cache unconditionally. Writing even an
// all-null snapshot prevents hot rebuild loops for portfolios pointed at
// permanently failing symbols. The worker shares this path.
func (s *Service) Rebuild(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	holdings, err := s.holdings.HoldingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load holdings for %s: %w", userID, err)
	}

	// One goroutine per holding. Rate control lives at the source level, not
	// here, so in-portfolio concurrency is deliberately unbounded.
	quotes := make([]models.Quote, len(holdings))
	var wg sync.WaitGroup
	for i, h := range holdings {
		wg.Add(1)
		go func(i int, h models.Holding) {
			defer wg.Done()
			quotes[i] = s.fetcher.FetchQuote(ctx, h.Symbol, h.Exchange)
		}(i, h)
	}
	wg.Wait()

	snap := BuildSnapshot(userID, holdings, quotes, time.Now().UTC())

	if err := s.snapshots.Set(ctx, snap); err != nil {
		// Cache store down: the caller still gets the computed snapshot
		s.logger.Warn("snapshot cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return snap, nil
}

// enqueueRefresh hands the user off to the refresh queue on a detached
// goroutine with its own timeout, isolated from the request's control flow.
func (s *Service) enqueueRefresh(userID string) {
	if s.queue == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.enqueueTimeout)
		defer cancel()
		if _, err := s.queue.Enqueue(ctx, userID); err != nil {
			s.logger.Warn("refresh enqueue failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}
