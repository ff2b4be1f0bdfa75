package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Name                   = "deal_finder_db"
	CollectionSearchQuery  = "search_queries"
	CollectionTrackedItems = "tracked_items"
)

type Database struct {
	*mongo.Database
}

var (
	ErrTrackedItemExists   = errors.New("tracked item already exists")
	ErrSearchQueryNotFound = errors.New("search query not found")
)

// ConnectDB connects and ensures the uniqueness constraints the pipeline
// relies on: one Search Query per product key, and at most one Tracked Item
// per listing id (the dedup key).
func ConnectDB(ctx context.Context, dbURI string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionSearchQuery).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "product_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionTrackedItems).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "listing_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "notified_at", Value: -1}},
				Options: options.Index().SetUnique(false),
			},
		},
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Ping verifies the connection for the liveness endpoint.
func (db Database) Ping(ctx context.Context) error {
	return errors.Wrap(db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(), "error pinging database")
}
