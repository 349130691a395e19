package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserMatch filters users by a partial, case-insensitive email.
func UserMatch(email string) bson.M {
	match := bson.M{}
	if email = strings.TrimSpace(email); email != "" {
		match["email"] = Contains(email)
	}
	return match
}

func groupCount(field string) bson.A {
	return bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

// UserListPipeline pages users newest first and, in the same round trip,
// counts the whole match by status and by role.
func UserListPipeline(match bson.M, page Page) mongo.Pipeline {
	sort := Sort{Field: "createdAt", Desc: true}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.D{
			{Key: "data", Value: bson.A{
				bson.D{{Key: "$sort", Value: sort.Doc()}},
				bson.D{{Key: "$skip", Value: page.Skip()}},
				bson.D{{Key: "$limit", Value: int64(page.Limit)}},
				bson.D{{Key: "$project", Value: bson.D{{Key: "password", Value: 0}}}},
			}},
			{Key: "meta", Value: bson.A{bson.D{{Key: "$count", Value: "total"}}}},
			{Key: "byStatus", Value: groupCount("status")},
			{Key: "byRole", Value: groupCount("role")},
		}}},
	}
}
