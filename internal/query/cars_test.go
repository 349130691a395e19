package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCarMatchEmpty(t *testing.T) {
	match, err := CarMatch(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, match)
}

func TestCarMatchSearch(t *testing.T) {
	match, err := CarMatch(url.Values{"search": {"c++ (turbo)"}})
	require.NoError(t, err)

	or, ok := match["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, len(CarSearchFields))

	want := primitive.Regex{Pattern: `c\+\+ \(turbo\)`, Options: "i"}
	for i, f := range CarSearchFields {
		assert.Equal(t, bson.M{f: want}, or[i])
	}
}

func TestCarMatchExactFilters(t *testing.T) {
	match, err := CarMatch(url.Values{
		"brand":    {"Toyota"},
		"fuelType": {" diesel "},
		"color":    {"red"},
	})
	require.NoError(t, err)

	assert.Equal(t, primitive.Regex{Pattern: "^Toyota$", Options: "i"}, match["brand"])
	assert.Equal(t, primitive.Regex{Pattern: "^diesel$", Options: "i"}, match["fuelType"])
	assert.NotContains(t, match, "color")
}

func TestCarMatchAvailability(t *testing.T) {
	match, err := CarMatch(url.Values{"isAvailable": {"true"}})
	require.NoError(t, err)
	assert.Equal(t, true, match["isAvailable"])

	match, err = CarMatch(url.Values{"isAvailable": {"nope"}})
	require.NoError(t, err)
	assert.Equal(t, false, match["isAvailable"])
}

func TestCarMatchRanges(t *testing.T) {
	match, err := CarMatch(url.Values{
		"minPrice": {"49.5"},
		"maxPrice": {"120"},
		"minYear":  {"2018"},
		"maxSeats": {"7"},
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$gte": 49.5, "$lte": 120.0}, match["price"])
	assert.Equal(t, bson.M{"$gte": 2018}, match["year"])
	assert.Equal(t, bson.M{"$lte": 7}, match["seatingCapacity"])
}

func TestCarMatchRejectsBadNumbers(t *testing.T) {
	_, err := CarMatch(url.Values{"minYear": {"2018.5"}})
	var perr *ParamError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "minYear", perr.Param)

	_, err = CarMatch(url.Values{"maxPrice": {"cheap"}})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "maxPrice", perr.Param)
}

func TestCarMatchFeatures(t *testing.T) {
	match, err := CarMatch(url.Values{"features": {"sunroof, bluetooth,,"}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$all": []string{"sunroof", "bluetooth"}}, match["features"])

	match, err = CarMatch(url.Values{"features": {" , "}})
	require.NoError(t, err)
	assert.NotContains(t, match, "features")
}

func TestCarListPipeline(t *testing.T) {
	p := CarListPipeline(bson.M{"brand": "x"}, Sort{Field: "price"}, Page{Page: 2, Limit: 5})
	require.Len(t, p, 2)

	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, "$facet", p[1][0].Key)

	facet := p[1][0].Value.(bson.D)
	require.Equal(t, "data", facet[0].Key)
	require.Equal(t, "meta", facet[1].Key)

	data := facet[0].Value.(bson.A)
	require.Len(t, data, 5)
	assert.Equal(t, bson.D{{Key: "$skip", Value: int64(5)}}, data[1])
	assert.Equal(t, bson.D{{Key: "$limit", Value: int64(5)}}, data[2])
	assert.Equal(t, "$lookup", data[3].(bson.D)[0].Key)
	assert.Equal(t, "$unwind", data[4].(bson.D)[0].Key)

	assert.Equal(t, bson.A{bson.D{{Key: "$count", Value: "total"}}}, facet[1].Value)
}

func TestAvailableCarMatch(t *testing.T) {
	assert.Equal(t, bson.M{"isAvailable": true, "status": "active", "insuranceValid": true}, AvailableCarMatch())
}
