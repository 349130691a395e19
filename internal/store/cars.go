package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
)

type CarStore struct {
	coll *mongo.Collection
}

func NewCarStore(db *mongo.Database) *CarStore {
	return &CarStore{coll: db.Collection(CarsCollection)}
}

func (s *CarStore) Create(ctx context.Context, car *models.Car) error {
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	car.CreatedAt = now()
	car.UpdatedAt = car.CreatedAt
	if car.AvailableFrom.IsZero() {
		car.AvailableFrom = car.CreatedAt
	}

	if _, err := s.coll.InsertOne(ctx, car); err != nil {
		return fmt.Errorf("insert car: %w", classify(err))
	}
	return nil
}

// Get loads the bare car document.
func (s *CarStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	var car models.Car
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, classify(err)
	}
	return &car, nil
}

// FindByID loads a car with its owner joined.
func (s *CarStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.CarWithOwner, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	for _, stage := range query.CarOwnerStages() {
		pipeline = append(pipeline, stage)
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate car: %w", err)
	}
	defer cursor.Close(ctx)

	var cars []models.CarWithOwner
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("decode car: %w", err)
	}
	if len(cars) == 0 {
		return nil, ErrNotFound
	}
	return &cars[0], nil
}

// Update applies set to the car and returns it with the owner joined.
func (s *CarStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.CarWithOwner, error) {
	set["updatedAt"] = now()
	update := bson.M{"$set": set}
	// An empty registration number is removed so the unique index skips the car.
	if reg, ok := set["registrationNumber"].(string); ok && reg == "" {
		delete(set, "registrationNumber")
		update["$unset"] = bson.M{"registrationNumber": ""}
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("update car: %w", classify(err))
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *CarStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	var car models.Car
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, classify(err)
	}
	return &car, nil
}

// List runs the filter/sort/paginate facet pipeline for cars.
func (s *CarStore) List(ctx context.Context, match bson.M, sort query.Sort, page query.Page) ([]models.CarWithOwner, int64, error) {
	cars, total, err := aggregatePage[models.CarWithOwner](ctx, s.coll, query.CarListPipeline(match, sort, page))
	if err != nil {
		return nil, 0, fmt.Errorf("list cars: %w", err)
	}
	return cars, total, nil
}
