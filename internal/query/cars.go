package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/carrental-api/internal/models"
)

// CarSearchFields are matched by the free-text "search" parameter.
var CarSearchFields = []string{"brand", "model", "category", "location", "description"}

// CarExactFilters are matched whole-value, case-insensitively.
var CarExactFilters = []string{"brand", "model", "category", "transmission", "fuelType", "status", "location", "registrationNumber"}

// CarSortFields are the accepted sortBy values for car listings.
var CarSortFields = []string{"createdAt", "updatedAt", "price", "year", "rating", "mileage", "seatingCapacity", "brand", "model", "totalRentals", "totalReviews"}

type numberRange struct {
	field    string
	min, max string
	integer  bool
}

var carRanges = []numberRange{
	{field: "price", min: "minPrice", max: "maxPrice"},
	{field: "year", min: "minYear", max: "maxYear", integer: true},
	{field: "seatingCapacity", min: "minSeats", max: "maxSeats", integer: true},
}

// CarMatch builds the $match document for GET /cars from its query string.
func CarMatch(q url.Values) (bson.M, error) {
	match := bson.M{}

	if search := strings.TrimSpace(q.Get("search")); search != "" {
		or := bson.A{}
		for _, f := range CarSearchFields {
			or = append(or, bson.M{f: Contains(search)})
		}
		match["$or"] = or
	}

	for _, f := range CarExactFilters {
		if v := strings.TrimSpace(q.Get(f)); v != "" {
			match[f] = EqualFold(v)
		}
	}

	if q.Has("isAvailable") {
		match["isAvailable"] = q.Get("isAvailable") == "true"
	}

	for _, r := range carRanges {
		bounds := bson.M{}
		for op, param := range map[string]string{"$gte": r.min, "$lte": r.max} {
			raw := strings.TrimSpace(q.Get(param))
			if raw == "" {
				continue
			}
			n, err := parseNumber(raw, r.integer)
			if err != nil {
				return nil, &ParamError{Param: param, Value: raw}
			}
			bounds[op] = n
		}
		if len(bounds) > 0 {
			match[r.field] = bounds
		}
	}

	if raw := q.Get("features"); raw != "" {
		var features []string
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		if len(features) > 0 {
			match["features"] = bson.M{"$all": features}
		}
	}

	return match, nil
}

// AvailableCarMatch selects cars that can be rented right now.
func AvailableCarMatch() bson.M {
	return bson.M{
		"isAvailable":    true,
		"status":         models.CarStatusActive,
		"insuranceValid": true,
	}
}

// CarOwnerStages join the owner's public fields onto each car.
func CarOwnerStages() []bson.D {
	return []bson.D{
		Lookup("users", "ownedBy", "ownerDetails", "firstName", "lastName", "email"),
		Unwind("ownerDetails", true),
	}
}

// CarListPipeline is the full listing aggregation for cars.
func CarListPipeline(match bson.M, sort Sort, page Page) mongo.Pipeline {
	return FacetPipeline(match, sort, page, CarOwnerStages()...)
}

func parseNumber(raw string, integer bool) (interface{}, error) {
	if integer {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return strconv.ParseFloat(raw, 64)
}
