package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
)

type BookingStore struct {
	coll *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{coll: db.Collection(BookingsCollection)}
}

func (s *BookingStore) Create(ctx context.Context, b *models.Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt

	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert booking: %w", classify(err))
	}
	return nil
}

// HasOverlap reports whether a pending or confirmed booking of car
// intersects [start, end).
func (s *BookingStore) HasOverlap(ctx context.Context, car primitive.ObjectID, start, end time.Time) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, query.OverlapFilter(car, start, end), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n > 0, nil
}

func (s *BookingStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": now()}}

	var b models.Booking
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&b); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (s *BookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (s *BookingStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// ListForUser pages one user's bookings with car details.
func (s *BookingStore) ListForUser(ctx context.Context, userID primitive.ObjectID, page query.Page) ([]models.UserBooking, int64, error) {
	rows, total, err := aggregatePage[models.UserBooking](ctx, s.coll, query.UserBookingPipeline(userID, page))
	if err != nil {
		return nil, 0, fmt.Errorf("list user bookings: %w", err)
	}
	return rows, total, nil
}

// ListAll pages every booking matching match, joined with car and customer.
func (s *BookingStore) ListAll(ctx context.Context, match bson.M, sort query.Sort, page query.Page) ([]models.AdminBooking, int64, error) {
	rows, total, err := aggregatePage[models.AdminBooking](ctx, s.coll, query.AdminBookingPipeline(match, sort, page))
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return rows, total, nil
}
