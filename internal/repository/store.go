package repository

import (
	"context"
	"errors"

	"github.com/Manas2412/8Byte/pkg/models"
)

// ErrUserNotFound is returned by HoldingsStore when the user does not exist.
var ErrUserNotFound = errors.New("user not found")

// SnapshotStore is the portfolio cache: whole-document snapshots with a TTL.
type SnapshotStore interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)
	Set(ctx context.Context, snap *models.PortfolioSnapshot) error
}

// HoldingsStore is the read-only view of the persistent store this subsystem
// depends on. Writes to holdings happen elsewhere.
type HoldingsStore interface {
	HoldingsForUser(ctx context.Context, userID string) ([]models.Holding, error)
	UsersWithHoldings(ctx context.Context) ([]string, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}
