package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const DefaultSortField = "createdAt"

// Sort is a single-field ordering.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort accepts sortBy only when it is in allowed; anything else sorts by
// createdAt. Order defaults to descending unless it is "asc".
func ParseSort(sortBy, order string, allowed []string) Sort {
	s := Sort{Field: DefaultSortField, Desc: !strings.EqualFold(order, "asc")}
	for _, f := range allowed {
		if f == sortBy {
			s.Field = sortBy
			break
		}
	}
	return s
}

// Doc renders the $sort document. _id breaks ties so pages do not shuffle.
func (s Sort) Doc() bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	d := bson.D{{Key: s.Field, Value: dir}}
	if s.Field != "_id" {
		d = append(d, bson.E{Key: "_id", Value: dir})
	}
	return d
}
