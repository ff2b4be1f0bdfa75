package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TrackedItem is one listing that survived the full pipeline. Rows are
// insert-only: the existence of a row for a listing id is the sole source of
// truth for "already notified". Profit is the value computed at notification
// time and is never re-derived.
type TrackedItem struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ListingID         string             `bson:"listing_id" json:"listing_id"`
	ProductKey        string             `bson:"product_key" json:"product_key"`
	Title             string             `bson:"title" json:"title"`
	Price             float64            `bson:"price" json:"price"`
	Currency          string             `bson:"currency" json:"currency"`
	URL               string             `bson:"url" json:"url"`
	PhotoURL          string             `bson:"photo_url" json:"photo_url"`
	Description       string             `bson:"description" json:"description"`
	Seller            string             `bson:"seller" json:"seller"`
	SellerReputation  *int               `bson:"seller_reputation,omitempty" json:"seller_reputation,omitempty"`
	TitlePassed       bool               `bson:"title_passed" json:"title_passed"`
	DescriptionPassed bool               `bson:"description_passed" json:"description_passed"`
	Variant           string             `bson:"variant" json:"variant"`
	Profit            float64            `bson:"profit" json:"profit"`
	Margin            float64            `bson:"margin" json:"margin"`
	Quality           int                `bson:"quality" json:"quality"`
	NotifiedAt        primitive.DateTime `bson:"notified_at" json:"notified_at"`
	CreatedAt         primitive.DateTime `bson:"created_at" json:"-"`
}

// TrackedItemInsert inserts the row that makes a listing permanently "seen".
// A duplicate listing id maps to ErrTrackedItemExists so the caller can treat
// a lost race as an ordinary dedup skip.
func (db Database) TrackedItemInsert(ctx context.Context, ti TrackedItem) error {
	ti.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(CollectionTrackedItems).InsertOne(ctx, ti)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrTrackedItemExists, "ListingID: %s", ti.ListingID)
	}
	return errors.Wrapf(err, "error inserting TrackedItem, ListingID: %s", ti.ListingID)
}

func (db Database) TrackedItemExists(ctx context.Context, listingID string) (bool, error) {
	err := db.Collection(CollectionTrackedItems).
		FindOne(ctx, bson.M{"listing_id": listingID}, options.FindOne().SetProjection(bson.M{"_id": 1})).
		Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, errors.Wrapf(err, "error checking TrackedItem existence, ListingID: %s", listingID)
}

func (db Database) TrackedItemsFindRecent(ctx context.Context, limit int) ([]TrackedItem, error) {
	var tis []TrackedItem
	opts := options.Find().SetSort(bson.M{"notified_at": -1}).SetLimit(int64(limit))
	cur, err := db.Collection(CollectionTrackedItems).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find recent TrackedItems")
	}
	if err = cur.All(ctx, &tis); err != nil {
		return nil, errors.Wrap(err, "error getting recent TrackedItems from cursor")
	}
	return tis, nil
}

func (db Database) TrackedItemsCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionTrackedItems).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting TrackedItems")
}

func (db Database) TrackedItemsCountSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := db.Collection(CollectionTrackedItems).CountDocuments(ctx, bson.M{
		"notified_at": bson.M{"$gte": primitive.NewDateTimeFromTime(since)},
	})
	return n, errors.Wrapf(err, "error counting TrackedItems since: %s", since.Format(time.RFC3339))
}
