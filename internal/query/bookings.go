package query

import (
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/carrental-api/internal/models"
)

// BookingSortFields are the accepted sortBy values for the admin booking list.
var BookingSortFields = []string{"createdAt", "updatedAt", "startDate", "endDate", "totalAmount", "status"}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// BookingMatch builds the $match for GET /bookings: status plus a range on
// the booking's startDate.
func BookingMatch(q url.Values) (bson.M, error) {
	match := bson.M{}

	if status := strings.TrimSpace(q.Get("status")); status != "" {
		match["status"] = status
	}

	bounds := bson.M{}
	for op, param := range map[string]string{"$gte": "startDate", "$lte": "endDate"} {
		raw := strings.TrimSpace(q.Get(param))
		if raw == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			return nil, &ParamError{Param: param, Value: raw}
		}
		bounds[op] = t
	}
	if len(bounds) > 0 {
		match["startDate"] = bounds
	}

	return match, nil
}

// AdminBookingPipeline joins car and customer onto each booking and trims
// the car to the fields the admin table shows.
func AdminBookingPipeline(match bson.M, sort Sort, page Page) mongo.Pipeline {
	return FacetPipeline(match, sort, page,
		Lookup("cars", "car", "carDetails"),
		Unwind("carDetails", false),
		Lookup("users", "user", "userDetails", "firstName", "lastName", "email"),
		Unwind("userDetails", false),
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "startDate", Value: 1},
			{Key: "endDate", Value: 1},
			{Key: "totalAmount", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "car", Value: bson.D{
				{Key: "_id", Value: "$carDetails._id"},
				{Key: "brand", Value: "$carDetails.brand"},
				{Key: "model", Value: "$carDetails.model"},
				{Key: "image", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$carDetails.images", 0}}}},
				{Key: "price", Value: "$carDetails.price"},
				{Key: "registrationNumber", Value: "$carDetails.registrationNumber"},
			}},
			{Key: "user", Value: "$userDetails"},
		}}},
	)
}

// UserBookingPipeline lists one user's bookings newest first with the car's
// brand, model, images and price.
func UserBookingPipeline(userID primitive.ObjectID, page Page) mongo.Pipeline {
	return FacetPipeline(bson.M{"user": userID}, Sort{Field: "createdAt", Desc: true}, page,
		Lookup("cars", "car", "car", "brand", "model", "images", "price"),
		Unwind("car", true),
	)
}

// OverlapFilter selects bookings of car that still hold it and intersect [start, end).
func OverlapFilter(car primitive.ObjectID, start, end time.Time) bson.M {
	return bson.M{
		"car":       car,
		"status":    bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
		"startDate": bson.M{"$lt": end},
		"endDate":   bson.M{"$gt": start},
	}
}
