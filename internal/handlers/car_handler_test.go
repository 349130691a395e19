package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
)

func carBody() map[string]interface{} {
	return map[string]interface{}{
		"brand":              "Toyota",
		"model":              "RAV4",
		"year":               2022,
		"price":              80,
		"category":           "SUV",
		"transmission":       "Automatic",
		"fuelType":           "hybrid",
		"seatingCapacity":    5,
		"location":           "Lisbon",
		"description":        "Comfortable family SUV",
		"registrationNumber": " ab-12-cd ",
		"features":           []string{"abs", "bluetooth"},
	}
}

func (e *testEnv) createCar(t *testing.T, body map[string]interface{}) *models.Car {
	t.Helper()
	w := e.do(http.MethodPost, "/cars", e.adminToken(t), body)
	requireStatus(t, w, http.StatusCreated)
	id, err := primitive.ObjectIDFromHex(decode(t, w)["data"].(map[string]interface{})["id"].(string))
	require.NoError(t, err)
	return e.cars.byID[id]
}

func TestCreateCar(t *testing.T) {
	env := newTestEnv(t, 100)

	car := env.createCar(t, carBody())
	assert.Equal(t, "suv", car.Category)
	assert.Equal(t, "automatic", car.Transmission)
	assert.Equal(t, "AB-12-CD", car.RegistrationNumber)
	assert.Equal(t, models.DefaultColor, car.Color)
	assert.Equal(t, models.CarStatusActive, car.Status)
	assert.True(t, car.IsAvailable)
	assert.True(t, car.InsuranceValid)
	assert.Equal(t, 1, car.MinimumRentalDays)
	assert.Equal(t, 30, car.MaximumRentalDays)
	assert.Equal(t, []string{}, car.Images)
	assert.False(t, car.AvailableFrom.IsZero())
	assert.Equal(t, 1, env.cache.invalidations)

	t.Run("duplicate registration", func(t *testing.T) {
		body := carBody()
		body["registrationNumber"] = "AB-12-CD"
		w := env.do(http.MethodPost, "/cars", env.adminToken(t), body)
		requireStatus(t, w, http.StatusConflict)
		assert.Equal(t, "A car with this registration number already exists", decode(t, w)["message"])
	})

	t.Run("no registration number twice", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			body := carBody()
			delete(body, "registrationNumber")
			env.createCar(t, body)
		}
	})
}

func TestCreateCarEmptyBody(t *testing.T) {
	env := newTestEnv(t, 100)

	for _, raw := range []string{"", "{}", "  {  } "} {
		w := env.do(http.MethodPost, "/cars", env.adminToken(t), raw)
		requireStatus(t, w, http.StatusBadRequest)
		body := decode(t, w)
		assert.Equal(t, "Request body is empty. Please send car data in JSON format.", body["message"])
		assert.Equal(t, "Make sure Content-Type is set to application/json", body["hint"])
	}
}

func TestCreateCarValidation(t *testing.T) {
	env := newTestEnv(t, 100)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		want   string
	}{
		{"missing brand", func(b map[string]interface{}) { delete(b, "brand") }, "Brand is required"},
		{"old model year", func(b map[string]interface{}) { b["year"] = 1980 }, "Year must be 1990 or later"},
		{"negative price", func(b map[string]interface{}) { b["price"] = -1 }, "Price cannot be negative"},
		{"unknown category", func(b map[string]interface{}) { b["category"] = "Spaceship" }, "spaceship is not a valid category"},
		{"too many seats", func(b map[string]interface{}) { b["seatingCapacity"] = 40 }, "Maximum 15 seats allowed"},
		{"bad feature", func(b map[string]interface{}) { b["features"] = []string{"abs", "jetpack"} }, "One or more features are invalid"},
		{"short description", func(b map[string]interface{}) { b["description"] = "ok" }, "Description must be at least 5 characters"},
		{"too many images", func(b map[string]interface{}) { b["images"] = []string{"1", "2", "3", "4", "5", "6"} }, "Maximum 5 images allowed"},
		{"rating out of range", func(b map[string]interface{}) { b["rating"] = 7 }, "Rating cannot be more than 5"},
		{"bad owner", func(b map[string]interface{}) { b["ownedBy"] = "nobody" }, "Invalid owner ID"},
		{"rental days inverted", func(b map[string]interface{}) {
			b["minimumRentalDays"] = 10
			b["maximumRentalDays"] = 3
		}, "Minimum rental days cannot exceed maximum rental days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := carBody()
			tt.mutate(body)

			w := env.do(http.MethodPost, "/cars", env.adminToken(t), body)
			requireStatus(t, w, http.StatusBadRequest)
			resp := decode(t, w)
			assert.Equal(t, "Validation Error", resp["message"])
			assert.Contains(t, resp["errors"], tt.want)
		})
	}
	assert.Empty(t, env.cars.byID)
}

func TestCarWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 100)
	userToken := env.token(t, primitive.NewObjectID(), models.RoleUser)

	requireStatus(t, env.do(http.MethodPost, "/cars", "", carBody()), http.StatusUnauthorized)
	requireStatus(t, env.do(http.MethodPost, "/cars", userToken, carBody()), http.StatusForbidden)
	requireStatus(t, env.do(http.MethodPut, "/cars/"+primitive.NewObjectID().Hex(), userToken, map[string]int{"price": 1}), http.StatusForbidden)
	requireStatus(t, env.do(http.MethodDelete, "/cars/"+primitive.NewObjectID().Hex(), userToken, nil), http.StatusForbidden)
}

func TestGetAllCars(t *testing.T) {
	env := newTestEnv(t, 100)
	env.createCar(t, carBody())

	path := "/cars?search=suv&minPrice=10&sortBy=price&order=asc&page=2&limit=5"
	w := env.do(http.MethodGet, path, "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	body := decode(t, w)
	assert.Equal(t, "Cars retrieved successfully", body["message"])
	assert.Equal(t, 2.0, body["page"])
	assert.Equal(t, 5.0, body["limit"])
	assert.Equal(t, 1.0, body["total"])
	assert.Equal(t, 1.0, body["totalPages"])

	assert.Equal(t, query.Sort{Field: "price"}, env.cars.lastSort)
	assert.Equal(t, query.Page{Page: 2, Limit: 5}, env.cars.lastPage)
	assert.Contains(t, env.cars.lastMatch, "$or")
	assert.Contains(t, env.cars.lastMatch, "price")

	t.Run("served from cache", func(t *testing.T) {
		w := env.do(http.MethodGet, path, "", nil)
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Equal(t, 1, env.cars.listCalls)
	})

	t.Run("writes invalidate the cache", func(t *testing.T) {
		env.createCar(t, carBody2())
		w := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		assert.Equal(t, 2.0, decode(t, w)["total"])
	})

	t.Run("write during render is not cached", func(t *testing.T) {
		const racing = "/cars?brand=Toyota"
		env.cars.onList = func() {
			env.cars.onList = nil
			env.cache.Invalidate(context.Background())
		}
		requireStatus(t, env.do(http.MethodGet, racing, "", nil), http.StatusOK)

		w := env.do(http.MethodGet, racing, "", nil)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	})

	t.Run("unknown sort falls back", func(t *testing.T) {
		env.do(http.MethodGet, "/cars?sortBy=password", "", nil)
		assert.Equal(t, query.Sort{Field: "createdAt", Desc: true}, env.cars.lastSort)
	})

	t.Run("malformed range", func(t *testing.T) {
		w := env.do(http.MethodGet, "/cars?minPrice=cheap", "", nil)
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "Invalid query parameter", decode(t, w)["message"])
	})
}

func carBody2() map[string]interface{} {
	body := carBody()
	body["registrationNumber"] = "XY-99-ZZ"
	return body
}

func TestGetAvailableCars(t *testing.T) {
	env := newTestEnv(t, 100)
	env.createCar(t, carBody())

	w := env.do(http.MethodGet, "/cars/available?limit=3", "", nil)
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, "Available cars retrieved successfully", body["message"])
	assert.Equal(t, 3.0, body["limit"])

	assert.Equal(t, query.AvailableCarMatch(), env.cars.lastMatch)
	assert.Equal(t, query.Sort{Field: "createdAt", Desc: true}, env.cars.lastSort)
}

func TestGetCarByID(t *testing.T) {
	env := newTestEnv(t, 100)
	car := env.createCar(t, carBody())

	w := env.do(http.MethodGet, "/cars/"+car.ID.Hex(), "", nil)
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, "Car retrieved successfully", body["message"])
	assert.Equal(t, "Toyota", body["data"].(map[string]interface{})["brand"])

	w = env.do(http.MethodGet, "/cars/not-an-id", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Invalid car ID format", decode(t, w)["message"])

	w = env.do(http.MethodGet, "/cars/"+primitive.NewObjectID().Hex(), "", nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Car not found", decode(t, w)["message"])
}

func TestUpdateCar(t *testing.T) {
	env := newTestEnv(t, 100)
	car := env.createCar(t, carBody())
	other := env.createCar(t, carBody2())
	admin := env.adminToken(t)
	path := "/cars/" + car.ID.Hex()

	w := env.do(http.MethodPut, path, admin, map[string]interface{}{
		"price":              95.5,
		"status":             "Maintenance",
		"registrationNumber": "zz-00-aa",
	})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Car updated successfully", decode(t, w)["message"])

	updated := env.cars.byID[car.ID]
	assert.Equal(t, 95.5, updated.Price)
	assert.Equal(t, models.CarStatusMaintenance, updated.Status)
	assert.Equal(t, "ZZ-00-AA", updated.RegistrationNumber)
	assert.Equal(t, "Toyota", updated.Brand)
	assert.Equal(t, 3, env.cache.invalidations)

	t.Run("blank brand", func(t *testing.T) {
		w := env.do(http.MethodPut, path, admin, map[string]string{"brand": "  "})
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, []interface{}{"Brand is required"}, decode(t, w)["errors"])
	})

	t.Run("no fields", func(t *testing.T) {
		w := env.do(http.MethodPut, path, admin, map[string]string{})
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "No fields to update", decode(t, w)["message"])
	})

	t.Run("duplicate registration", func(t *testing.T) {
		w := env.do(http.MethodPut, "/cars/"+other.ID.Hex(), admin, map[string]string{"registrationNumber": "ZZ-00-AA"})
		requireStatus(t, w, http.StatusConflict)
	})

	t.Run("missing car", func(t *testing.T) {
		w := env.do(http.MethodPut, "/cars/"+primitive.NewObjectID().Hex(), admin, map[string]int{"price": 1})
		requireStatus(t, w, http.StatusNotFound)
	})

	t.Run("price only", func(t *testing.T) {
		w := env.do(http.MethodPut, path, admin, map[string]float64{"price": 99})
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, 99.0, env.cars.byID[car.ID].Price)
	})
}

func TestUpdateCarRentalDaysAgainstStored(t *testing.T) {
	env := newTestEnv(t, 100)
	car := env.createCar(t, carBody())
	admin := env.adminToken(t)
	path := "/cars/" + car.ID.Hex()
	require.Equal(t, 30, car.MaximumRentalDays)

	w := env.do(http.MethodPut, path, admin, map[string]int{"minimumRentalDays": 40})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, []interface{}{"Minimum rental days cannot exceed maximum rental days"}, decode(t, w)["errors"])
	assert.Equal(t, 1, env.cars.byID[car.ID].MinimumRentalDays)

	requireStatus(t, env.do(http.MethodPut, path, admin, map[string]int{"minimumRentalDays": 7}), http.StatusOK)

	w = env.do(http.MethodPut, path, admin, map[string]int{"maximumRentalDays": 5})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 30, env.cars.byID[car.ID].MaximumRentalDays)

	requireStatus(t, env.do(http.MethodPut, path, admin, map[string]int{"minimumRentalDays": 40, "maximumRentalDays": 60}), http.StatusOK)
	assert.Equal(t, 40, env.cars.byID[car.ID].MinimumRentalDays)

	w = env.do(http.MethodPut, "/cars/"+primitive.NewObjectID().Hex(), admin, map[string]int{"minimumRentalDays": 2})
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteCar(t *testing.T) {
	env := newTestEnv(t, 100)
	car := env.createCar(t, carBody())
	admin := env.adminToken(t)

	w := env.do(http.MethodDelete, "/cars/"+car.ID.Hex(), admin, nil)
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, "Car deleted successfully", body["message"])
	assert.Equal(t, map[string]interface{}{
		"id":                 car.ID.Hex(),
		"brand":              "Toyota",
		"model":              "RAV4",
		"registrationNumber": "AB-12-CD",
	}, body["data"])
	assert.Equal(t, 2, env.cache.invalidations)

	requireStatus(t, env.do(http.MethodDelete, "/cars/"+car.ID.Hex(), admin, nil), http.StatusNotFound)
}
