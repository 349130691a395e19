package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// labels name fields the way messages refer to them.
var labels = map[string]string{
	"firstName":         "First name",
	"lastName":          "Last name",
	"email":             "Email",
	"password":          "Password",
	"brand":             "Brand",
	"model":             "Model",
	"year":              "Year",
	"price":             "Price",
	"category":          "Category",
	"transmission":      "Transmission type",
	"fuelType":          "Fuel type",
	"seatingCapacity":   "Seating capacity",
	"location":          "Location",
	"description":       "Description",
	"mileage":           "Mileage",
	"rating":            "Rating",
	"totalReviews":      "Total reviews",
	"totalRentals":      "Total rentals",
	"minimumRentalDays": "Minimum rental days",
	"maximumRentalDays": "Maximum rental days",
	"car":               "Car ID",
	"startDate":         "Start date",
	"endDate":           "End date",
	"totalAmount":       "Total amount",
	"status":            "Status",
	"role":              "Role",
}

// fixed holds messages that do not follow the generic patterns.
var fixed = map[string]string{
	"email.email":           "Invalid email address",
	"password.hasupper":     "Password must contain at least one uppercase letter",
	"password.haslower":     "Password must contain at least one lowercase letter",
	"password.hasdigit":     "Password must contain at least one number",
	"password.hasspecial":   "Password must contain at least one special character",
	"role.oneof":            "Role must be either 'user' or 'admin'",
	"year.min":              "Year must be 1990 or later",
	"year.caryear":          "Year cannot be in the future",
	"seatingCapacity.min":   "Minimum 2 seats required",
	"seatingCapacity.max":   "Maximum 15 seats allowed",
	"images.max":            "Maximum 5 images allowed",
	"features.carfeatures":  "One or more features are invalid",
	"car.objectid":          "Invalid car ID",
	"ownedBy.objectid":      "Invalid owner ID",
	"description.min":       "Description must be at least 5 characters",
	"description.max":       "Description cannot exceed 2000 characters",
	"rating.lte":            "Rating cannot be more than 5",
	"rating.gte":            "Rating cannot be less than 0",
	"minimumRentalDays.min": "Minimum rental days must be at least 1",
	"maximumRentalDays.min": "Maximum rental days must be at least 1",
	"transmission.oneof":    "%v is not a valid transmission type",
	"fuelType.oneof":        "%v is not a valid fuel type",
	"category.oneof":        "%v is not a valid category",
	"status.oneof":          "%v is not a valid status",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if msg, ok := fixed[field+"."+fe.Tag()]; ok {
		if strings.Contains(msg, "%v") {
			return fmt.Sprintf(msg, reflect.Indirect(reflect.ValueOf(fe.Value())))
		}
		return msg
	}

	name := label(field)
	switch fe.Tag() {
	case "required", "notblank":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", name, fe.Param())
	case "gte":
		return name + " cannot be negative"
	case "alphaspace":
		return name + " can only contain alphabets and spaces"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, fe.Param())
	}
	return name + " is invalid"
}
