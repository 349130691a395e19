package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FacetPipeline filters once, then splits into a paginated "data" branch and
// a "meta" branch counting every match. extra stages run after $limit, so
// joins only touch the returned page.
func FacetPipeline(match bson.M, sort Sort, page Page, extra ...bson.D) mongo.Pipeline {
	data := bson.A{
		bson.D{{Key: "$sort", Value: sort.Doc()}},
		bson.D{{Key: "$skip", Value: page.Skip()}},
		bson.D{{Key: "$limit", Value: int64(page.Limit)}},
	}
	for _, stage := range extra {
		data = append(data, stage)
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.D{
			{Key: "data", Value: data},
			{Key: "meta", Value: bson.A{
				bson.D{{Key: "$count", Value: "total"}},
			}},
		}}},
	}
}

// Lookup joins one document from another collection, projecting only fields.
func Lookup(from, localField, as string, fields ...string) bson.D {
	lookup := bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}
	if len(fields) > 0 {
		project := bson.D{}
		for _, f := range fields {
			project = append(project, bson.E{Key: f, Value: 1})
		}
		lookup = append(lookup, bson.E{Key: "pipeline", Value: bson.A{
			bson.D{{Key: "$project", Value: project}},
		}})
	}
	return bson.D{{Key: "$lookup", Value: lookup}}
}

// Unwind flattens a joined array. Optional keeps rows with nothing joined.
func Unwind(path string, optional bool) bson.D {
	if !optional {
		return bson.D{{Key: "$unwind", Value: "$" + path}}
	}
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$" + path},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}
