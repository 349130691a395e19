package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CarStatusActive      = "active"
	CarStatusMaintenance = "maintenance"
	CarStatusInactive    = "inactive"
	CarStatusRented      = "rented"

	MinCarYear     = 1990
	MaxCarImages   = 5
	DefaultColor   = "Not specified"
	MinSeats       = 2
	MaxSeats       = 15
	MaxDescription = 2000
)

var (
	CarCategories    = []string{"sedan", "suv", "hatchback", "coupe", "convertible", "van", "truck", "luxury", "economy"}
	CarTransmissions = []string{"automatic", "manual"}
	CarFuelTypes     = []string{"petrol", "diesel", "electric", "hybrid", "cng"}
	CarStatuses      = []string{CarStatusActive, CarStatusMaintenance, CarStatusInactive, CarStatusRented}

	CarFeatures = []string{
		"abs", "airbags", "parking_sensors", "traction_control",
		"rear_camera", "bluetooth", "rear_speakers", "mobile_charger",
		"child_seat", "sunroof", "cruise_control", "climate_control",
		"front_speakers", "push_start", "keyless_entry", "navigation",
		"heated_seats", "leather_seats", "usb_ports", "aux_input",
		"voice_control", "lane_assist", "parking_assist", "fog_lights",
		"alloy_wheels", "stability_control", "tinted_windows",
	}
)

var carFeatureSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CarFeatures))
	for _, f := range CarFeatures {
		m[f] = struct{}{}
	}
	return m
}()

// IsValidCarFeature reports whether f is one of the known feature keys.
func IsValidCarFeature(f string) bool {
	_, ok := carFeatureSet[f]
	return ok
}

// MaxCarYear is the newest model year accepted, next year's models included.
func MaxCarYear(now time.Time) int {
	return now.Year() + 1
}

type Car struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Brand               string              `bson:"brand" json:"brand"`
	Model               string              `bson:"model" json:"model"`
	Year                int                 `bson:"year" json:"year"`
	Price               float64             `bson:"price" json:"price"`
	Category            string              `bson:"category" json:"category"`
	Transmission        string              `bson:"transmission" json:"transmission"`
	FuelType            string              `bson:"fuelType" json:"fuelType"`
	SeatingCapacity     int                 `bson:"seatingCapacity" json:"seatingCapacity"`
	Location            string              `bson:"location" json:"location"`
	Images              []string            `bson:"images" json:"images"`
	Description         string              `bson:"description" json:"description"`
	Color               string              `bson:"color" json:"color"`
	RegistrationNumber  string              `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	Mileage             float64             `bson:"mileage" json:"mileage"`
	Features            []string            `bson:"features" json:"features"`
	IsAvailable         bool                `bson:"isAvailable" json:"isAvailable"`
	AvailableFrom       time.Time           `bson:"availableFrom" json:"availableFrom"`
	Rating              float64             `bson:"rating" json:"rating"`
	TotalReviews        int                 `bson:"totalReviews" json:"totalReviews"`
	InsuranceValid      bool                `bson:"insuranceValid" json:"insuranceValid"`
	InsuranceExpiryDate *time.Time          `bson:"insuranceExpiryDate,omitempty" json:"insuranceExpiryDate,omitempty"`
	OwnedBy             *primitive.ObjectID `bson:"ownedBy,omitempty" json:"ownedBy,omitempty"`
	Status              string              `bson:"status" json:"status"`
	TotalRentals        int                 `bson:"totalRentals" json:"totalRentals"`
	MinimumRentalDays   int                 `bson:"minimumRentalDays" json:"minimumRentalDays"`
	MaximumRentalDays   int                 `bson:"maximumRentalDays" json:"maximumRentalDays"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName renders "Brand Model (Year)".
func (c *Car) DisplayName() string {
	return fmt.Sprintf("%s %s (%d)", c.Brand, c.Model, c.Year)
}

// IsAvailableForRental reports whether the car can be booked right now.
func (c *Car) IsAvailableForRental() bool {
	return c.IsAvailable && c.Status == CarStatusActive && c.InsuranceValid
}

// Owner is the projection of the owning user joined into car responses.
type Owner struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
}

// CarWithOwner is a car plus its joined owner, when one is set.
type CarWithOwner struct {
	Car          `bson:",inline"`
	OwnerDetails *Owner `bson:"ownerDetails,omitempty" json:"ownerDetails,omitempty"`
}
