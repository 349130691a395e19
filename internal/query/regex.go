package query

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contains matches s anywhere in the field, ignoring case. s is escaped.
func Contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// EqualFold matches the whole field against s, ignoring case. s is escaped.
func EqualFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}
