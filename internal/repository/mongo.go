package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Manas2412/8Byte/pkg/models"
)

// Compile-time check to ensure MongoHoldingsStore implements HoldingsStore
var _ HoldingsStore = (*MongoHoldingsStore)(nil)

// MongoHoldingsStore reads the users and holdings collections. This subsystem
// never writes to either; holdings CRUD lives in the account service.
type MongoHoldingsStore struct {
	users    *mongo.Collection
	holdings *mongo.Collection
}

func NewMongoHoldingsStore(db *mongo.Database) *MongoHoldingsStore {
	return &MongoHoldingsStore{
		users:    db.Collection("users"),
		holdings: db.Collection("holdings"),
	}
}

func (m *MongoHoldingsStore) HoldingsForUser(ctx context.Context, userID string) ([]models.Holding, error) {
	cur, err := m.holdings.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find holdings: %w", err)
	}
	defer cur.Close(ctx)

	var holdings []models.Holding
	if err := cur.All(ctx, &holdings); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	return holdings, nil
}

func (m *MongoHoldingsStore) UsersWithHoldings(ctx context.Context) ([]string, error) {
	raw, err := m.holdings.Distinct(ctx, "user_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("distinct users: %w", err)
	}

	users := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			users = append(users, id)
		}
	}
	return users, nil
}

func (m *MongoHoldingsStore) UserExists(ctx context.Context, userID string) (bool, error) {
	count, err := m.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user: %w", err)
	}
	return count > 0, nil
}
