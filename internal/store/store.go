// Package store persists users, cars and bookings in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection    = "users"
	CarsCollection     = "cars"
	BookingsCollection = "bookings"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Connect opens a client and pings the primary before returning it.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

type facetCount struct {
	Total int64 `bson:"total"`
}

type facetPage[T any] struct {
	Data []T          `bson:"data"`
	Meta []facetCount `bson:"meta"`
}

// aggregatePage runs a $facet pipeline with "data" and "meta" branches.
func aggregatePage[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, int64, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []facetPage[T]
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}

	data := make([]T, 0)
	var total int64
	if len(results) > 0 {
		if results[0].Data != nil {
			data = results[0].Data
		}
		if len(results[0].Meta) > 0 {
			total = results[0].Meta[0].Total
		}
	}
	return data, total, nil
}

func now() time.Time {
	return time.Now().UTC()
}
