package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func asc(keys ...string) bson.D {
	d := bson.D{}
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	return d
}

// Indexes lists the indexes each collection needs, keyed by collection name.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: asc("email"), Options: options.Index().SetUnique(true)},
			{Keys: asc("firstName", "lastName")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CarsCollection: {
			// Partial rather than sparse: registrationNumber is omitted when
			// empty, so only documents that carry one must be unique.
			{
				Keys: asc("registrationNumber"),
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(
					bson.M{"registrationNumber": bson.M{"$type": "string"}}),
			},
			{Keys: asc("brand", "model")},
			{Keys: asc("category", "isAvailable")},
			{Keys: asc("location", "isAvailable")},
			{Keys: asc("price")},
			{Keys: bson.D{{Key: "rating", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: asc("brand", "category", "fuelType")},
			{Keys: asc("transmission", "fuelType")},
			{Keys: asc("seatingCapacity")},
			{Keys: asc("status")},
			{Keys: bson.D{{Key: "brand", Value: "text"}, {Key: "model", Value: "text"}, {Key: "description", Value: "text"}}},
		},
		BookingsCollection: {
			{Keys: asc("user")},
			{Keys: asc("car")},
			{Keys: asc("status")},
			{Keys: asc("car", "startDate", "endDate")},
		},
	}
}

// EnsureIndexes creates any missing index. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range Indexes() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
