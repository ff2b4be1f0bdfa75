package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchQuery is one persisted row per Product Spec. Created once at startup
// via an idempotent upsert and mutated only by the orchestrator after each
// cycle; never deleted, only disabled.
type SearchQuery struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductKey  string             `bson:"product_key" json:"product_key"`
	SearchText  string             `bson:"search_text" json:"search_text"`
	PriceFrom   float64            `bson:"price_from" json:"price_from"`
	PriceTo     float64            `bson:"price_to" json:"price_to"`
	LastChecked primitive.DateTime `bson:"last_checked" json:"last_checked"`
	TotalFound  int                `bson:"total_found" json:"total_found"`
	Enabled     bool               `bson:"enabled" json:"enabled"`
	CreatedAt   primitive.DateTime `bson:"created_at" json:"-"`
	UpdatedAt   primitive.DateTime `bson:"updated_at" json:"-"`
}

// SearchQueryUpsert creates the query for a product key if missing and
// refreshes its derived fields if present. Counters and the enabled flag are
// only set on insert so repeated startups never reset them.
func (db Database) SearchQueryUpsert(ctx context.Context, q SearchQuery) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(CollectionSearchQuery).UpdateOne(
		ctx,
		bson.M{"product_key": q.ProductKey},
		bson.M{
			"$set": bson.M{
				"search_text": q.SearchText,
				"price_from":  q.PriceFrom,
				"price_to":    q.PriceTo,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"product_key":  q.ProductKey,
				"last_checked": primitive.DateTime(0),
				"total_found":  0,
				"enabled":      true,
				"created_at":   now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting SearchQuery for ProductKey: %s", q.ProductKey)
}

// SearchQueriesFindDue returns up to limit enabled queries, oldest
// last_checked first, so every product eventually gets a turn.
func (db Database) SearchQueriesFindDue(ctx context.Context, limit int) ([]SearchQuery, error) {
	var qs []SearchQuery
	opts := options.Find().SetSort(bson.M{"last_checked": 1}).SetLimit(int64(limit))
	cur, err := db.Collection(CollectionSearchQuery).Find(ctx, bson.M{"enabled": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find due SearchQueries")
	}
	if err = cur.All(ctx, &qs); err != nil {
		return nil, errors.Wrap(err, "error getting due SearchQueries from cursor")
	}
	return qs, nil
}

// SearchQueryCycleUpdate records the end of one scan of a query.
func (db Database) SearchQueryCycleUpdate(ctx context.Context, productKey string, found int) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := db.Collection(CollectionSearchQuery).UpdateOne(
		ctx,
		bson.M{"product_key": productKey},
		bson.M{
			"$set": bson.M{"last_checked": now, "updated_at": now},
			"$inc": bson.M{"total_found": found},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating SearchQuery cycle state, ProductKey: %s, found: %d", productKey, found)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrSearchQueryNotFound, "updating cycle state, ProductKey: %s", productKey)
	}
	return nil
}

func (db Database) SearchQuerySetEnabled(ctx context.Context, productKey string, enabled bool) error {
	res, err := db.Collection(CollectionSearchQuery).UpdateOne(
		ctx,
		bson.M{"product_key": productKey},
		bson.M{"$set": bson.M{
			"enabled":    enabled,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error setting SearchQuery enabled=%t, ProductKey: %s", enabled, productKey)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrSearchQueryNotFound, "setting enabled=%t, ProductKey: %s", enabled, productKey)
	}
	return nil
}

func (db Database) SearchQueriesFindAll(ctx context.Context) ([]SearchQuery, error) {
	var qs []SearchQuery
	opts := options.Find().SetSort(bson.M{"product_key": 1})
	cur, err := db.Collection(CollectionSearchQuery).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all SearchQueries")
	}
	if err = cur.All(ctx, &qs); err != nil {
		return nil, errors.Wrap(err, "error getting all SearchQueries from cursor")
	}
	return qs, nil
}
