package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// BookingStatuses lists every accepted booking status.
var BookingStatuses = []string{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

type Booking struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Car         primitive.ObjectID `bson:"car" json:"car"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Blocks reports whether the booking holds the car for its date range.
func (b *Booking) Blocks() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Overlaps reports whether [start, end) intersects the booking's range.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && start.Before(b.EndDate)
}

func IsValidBookingStatus(status string) bool {
	for _, s := range BookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// BookingCarSummary is the car as joined into a user's booking list.
type BookingCarSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Brand  string             `bson:"brand" json:"brand"`
	Model  string             `bson:"model" json:"model"`
	Images []string           `bson:"images" json:"images"`
	Price  float64            `bson:"price" json:"price"`
}

// UserBooking is one row of GET /bookings/my-bookings.
type UserBooking struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Car         *BookingCarSummary `bson:"car" json:"car"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AdminBookingCar is the car as joined into the admin booking list.
type AdminBookingCar struct {
	ID                 primitive.ObjectID `bson:"_id" json:"id"`
	Brand              string             `bson:"brand" json:"brand"`
	Model              string             `bson:"model" json:"model"`
	Image              string             `bson:"image,omitempty" json:"image,omitempty"`
	Price              float64            `bson:"price" json:"price"`
	RegistrationNumber string             `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
}

// BookingCustomer is the user as joined into the admin booking list.
type BookingCustomer struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
}

// AdminBooking is one row of GET /bookings.
type AdminBooking struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Status      string             `bson:"status" json:"status"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Car         AdminBookingCar    `bson:"car" json:"car"`
	User        BookingCustomer    `bson:"user" json:"user"`
}
