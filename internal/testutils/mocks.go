package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/Manas2412/8Byte/internal/repository"
	"github.com/Manas2412/8Byte/pkg/models"
)

// MockHoldingsStore serves canned holdings and user lists.
type MockHoldingsStore struct {
	Mu             sync.Mutex
	HoldingsByUser map[string][]models.Holding
	Users          []string
	MissingUsers   map[string]bool
	HoldingsErr    error
	UsersErr       error
	ExistsErr      error
	HoldingsCalls  int
}

var _ repository.HoldingsStore = (*MockHoldingsStore)(nil)

func (m *MockHoldingsStore) HoldingsForUser(ctx context.Context, userID string) ([]models.Holding, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.HoldingsCalls++
	if m.HoldingsErr != nil {
		return nil, m.HoldingsErr
	}
	return m.HoldingsByUser[userID], nil
}

func (m *MockHoldingsStore) UsersWithHoldings(ctx context.Context) ([]string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.UsersErr != nil {
		return nil, m.UsersErr
	}
	return m.Users, nil
}

func (m *MockHoldingsStore) UserExists(ctx context.Context, userID string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return !m.MissingUsers[userID], nil
}

// MockSnapshotStore is an in-memory SnapshotStore with injectable failures.
type MockSnapshotStore struct {
	Mu        sync.Mutex
	Snapshots map[string]*models.PortfolioSnapshot
	GetErr    error
	SetErr    error
	SetCalls  int
}

var _ repository.SnapshotStore = (*MockSnapshotStore)(nil)

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Snapshots: make(map[string]*models.PortfolioSnapshot)}
}

func (m *MockSnapshotStore) Get(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Snapshots[userID], nil
}

func (m *MockSnapshotStore) Set(ctx context.Context, snap *models.PortfolioSnapshot) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Snapshots[snap.UserID] = snap
	return nil
}

// MockQueue records enqueues and serves scripted batches.
type MockQueue struct {
	Mu            sync.Mutex
	Enqueued      []string
	EnqueueErr    error
	EnqueueErrFor map[string]error

	Batches  [][]models.RefreshMessage
	ReadErr  error
	ReadIdx  int
	Acked    []string
	AckErr   error
	GroupErr error
}

func (m *MockQueue) Enqueue(ctx context.Context, userID string) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.EnqueueErr != nil {
		return "", m.EnqueueErr
	}
	if err := m.EnqueueErrFor[userID]; err != nil {
		return "", err
	}
	m.Enqueued = append(m.Enqueued, userID)
	return "1-0", nil
}

func (m *MockQueue) EnsureGroup(ctx context.Context) error {
	return m.GroupErr
}

func (m *MockQueue) ReadBatch(ctx context.Context, consumer string, count int64, block time.Duration) ([]models.RefreshMessage, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.ReadIdx >= len(m.Batches) {
		// Scripted batches exhausted: behave like an idle blocking read
		return nil, context.DeadlineExceeded
	}
	batch := m.Batches[m.ReadIdx]
	m.ReadIdx++
	return batch, nil
}

func (m *MockQueue) Ack(ctx context.Context, streamIDs ...string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.Acked = append(m.Acked, streamIDs...)
	return nil
}

// MockFetcher returns quotes from a per-symbol table and records calls.
type MockFetcher struct {
	Mu      sync.Mutex
	Quotes  map[string]models.Quote
	Symbols []string
}

func (m *MockFetcher) FetchQuote(ctx context.Context, symbol, exchange string) models.Quote {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Symbols = append(m.Symbols, symbol)
	return m.Quotes[symbol]
}

// Float is a pointer helper for building expected quotes.
func Float(v float64) *float64 { return &v }

// String is a pointer helper for building expected quotes.
func String(s string) *string { return &s }
