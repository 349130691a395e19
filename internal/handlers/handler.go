package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID) error
	Update(ctx context.Context, id primitive.ObjectID, u store.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, email string, page query.Page) (*store.UserPage, error)
}

type CarStore interface {
	Create(ctx context.Context, car *models.Car) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.CarWithOwner, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.CarWithOwner, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	List(ctx context.Context, match bson.M, sort query.Sort, page query.Page) ([]models.CarWithOwner, int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	HasOverlap(ctx context.Context, car primitive.ObjectID, start, end time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Booking, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, page query.Page) ([]models.UserBooking, int64, error)
	ListAll(ctx context.Context, match bson.M, sort query.Sort, page query.Page) ([]models.AdminBooking, int64, error)
}

// Notifier receives lifecycle changes after they are persisted.
type Notifier interface {
	UserCreated(u *models.User)
	BookingCreated(b *models.Booking)
	BookingUpdated(b *models.Booking)
	BookingDeleted(b *models.Booking)
}

// ListCache stores rendered listing bodies. Get hands back the slot a miss
// should be filled through, so a body rendered before an Invalidate is
// never served after it.
type ListCache interface {
	Get(ctx context.Context, key string) (body []byte, slot string, ok bool)
	Set(ctx context.Context, slot string, body []byte)
	Invalidate(ctx context.Context)
}

// Settings are the behaviour switches handlers read from configuration.
type Settings struct {
	BcryptCost       int
	AllowAdminSignup bool
	ExposeErrors     bool
}

type Handler struct {
	Users    UserStore
	Cars     CarStore
	Bookings BookingStore
	Tokens   *utils.TokenManager
	Notifier Notifier
	CarCache ListCache
	Log      *zap.Logger
	Settings Settings
}

// NewHandler wires the Mongo-backed stores of db into a Handler.
func NewHandler(db *mongo.Database, tokens *utils.TokenManager, notifier Notifier, carCache ListCache, log *zap.Logger, settings Settings) *Handler {
	return &Handler{
		Users:    store.NewUserStore(db),
		Cars:     store.NewCarStore(db),
		Bookings: store.NewBookingStore(db),
		Tokens:   tokens,
		Notifier: notifier,
		CarCache: carCache,
		Log:      log,
		Settings: settings,
	}
}
