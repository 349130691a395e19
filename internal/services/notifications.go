package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/events"
	"github.com/harentsoaR/carrental-api/internal/models"
)

const publishTimeout = 5 * time.Second

// NotificationService fans booking and user lifecycle changes out to the
// event broker. Publishing happens in the background so request handling
// never waits on the broker.
type NotificationService struct {
	publisher events.Publisher
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewNotificationService(publisher events.Publisher, log *zap.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, log: log}
}

type bookingPayload struct {
	BookingID   string    `json:"booking_id"`
	CarID       string    `json:"car_id"`
	UserID      string    `json:"user_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
}

func newBookingPayload(b *models.Booking) bookingPayload {
	return bookingPayload{
		BookingID:   b.ID.Hex(),
		CarID:       b.Car.Hex(),
		UserID:      b.User.Hex(),
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
	}
}

func (s *NotificationService) BookingCreated(b *models.Booking) {
	s.publish(events.NewEvent(events.TopicBookingCreated, newBookingPayload(b)))
}

func (s *NotificationService) BookingUpdated(b *models.Booking) {
	s.publish(events.NewEvent(events.TopicBookingUpdated, newBookingPayload(b)))
}

func (s *NotificationService) BookingDeleted(b *models.Booking) {
	s.publish(events.NewEvent(events.TopicBookingDeleted, newBookingPayload(b)))
}

func (s *NotificationService) UserCreated(u *models.User) {
	s.publish(events.NewEvent(events.TopicUserCreated, u.Summary()))
}

func (s *NotificationService) publish(event events.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("event not published", zap.String("event", event.EventType), zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight publish has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
