package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/cache"
	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/validation"
)

type CreateCarRequest struct {
	Brand               string     `json:"brand" validate:"required"`
	Model               string     `json:"model" validate:"required"`
	Year                *int       `json:"year" validate:"required,min=1990,caryear"`
	Price               *float64   `json:"price" validate:"required,gte=0"`
	Category            string     `json:"category" validate:"required,oneof=sedan suv hatchback coupe convertible van truck luxury economy"`
	Transmission        string     `json:"transmission" validate:"required,oneof=automatic manual"`
	FuelType            string     `json:"fuelType" validate:"required,oneof=petrol diesel electric hybrid cng"`
	SeatingCapacity     *int       `json:"seatingCapacity" validate:"required,min=2,max=15"`
	Location            string     `json:"location" validate:"required"`
	Images              []string   `json:"images" validate:"max=5"`
	Description         string     `json:"description" validate:"required,min=5,max=2000"`
	Color               string     `json:"color"`
	RegistrationNumber  string     `json:"registrationNumber"`
	Mileage             *float64   `json:"mileage" validate:"omitempty,gte=0"`
	Features            []string   `json:"features" validate:"omitempty,carfeatures"`
	IsAvailable         *bool      `json:"isAvailable"`
	AvailableFrom       *time.Time `json:"availableFrom"`
	Rating              *float64   `json:"rating" validate:"omitempty,gte=0,lte=5"`
	TotalReviews        *int       `json:"totalReviews" validate:"omitempty,gte=0"`
	InsuranceValid      *bool      `json:"insuranceValid"`
	InsuranceExpiryDate *time.Time `json:"insuranceExpiryDate"`
	OwnedBy             string     `json:"ownedBy" validate:"omitempty,objectid"`
	Status              string     `json:"status" validate:"omitempty,oneof=active maintenance inactive rented"`
	TotalRentals        *int       `json:"totalRentals" validate:"omitempty,gte=0"`
	MinimumRentalDays   *int       `json:"minimumRentalDays" validate:"omitempty,min=1"`
	MaximumRentalDays   *int       `json:"maximumRentalDays" validate:"omitempty,min=1"`
}

func (r *CreateCarRequest) normalize() {
	r.Brand = strings.TrimSpace(r.Brand)
	r.Model = strings.TrimSpace(r.Model)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Transmission = strings.ToLower(strings.TrimSpace(r.Transmission))
	r.FuelType = strings.ToLower(strings.TrimSpace(r.FuelType))
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
	r.Color = strings.TrimSpace(r.Color)
	r.RegistrationNumber = strings.ToUpper(strings.TrimSpace(r.RegistrationNumber))
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

// car builds the document to insert, filling the schema defaults.
func (r *CreateCarRequest) car() *models.Car {
	car := &models.Car{
		Brand:              r.Brand,
		Model:              r.Model,
		Year:               *r.Year,
		Price:              *r.Price,
		Category:           r.Category,
		Transmission:       r.Transmission,
		FuelType:           r.FuelType,
		SeatingCapacity:    *r.SeatingCapacity,
		Location:           r.Location,
		Images:             r.Images,
		Description:        r.Description,
		Color:              r.Color,
		RegistrationNumber: r.RegistrationNumber,
		Features:           r.Features,
		IsAvailable:        true,
		InsuranceValid:     true,
		Status:             r.Status,
		MinimumRentalDays:  1,
		MaximumRentalDays:  30,

		InsuranceExpiryDate: r.InsuranceExpiryDate,
	}
	if car.Images == nil {
		car.Images = []string{}
	}
	if car.Features == nil {
		car.Features = []string{}
	}
	if car.Color == "" {
		car.Color = models.DefaultColor
	}
	if car.Status == "" {
		car.Status = models.CarStatusActive
	}
	if r.Mileage != nil {
		car.Mileage = *r.Mileage
	}
	if r.IsAvailable != nil {
		car.IsAvailable = *r.IsAvailable
	}
	if r.AvailableFrom != nil {
		car.AvailableFrom = r.AvailableFrom.UTC()
	}
	if r.Rating != nil {
		car.Rating = *r.Rating
	}
	if r.TotalReviews != nil {
		car.TotalReviews = *r.TotalReviews
	}
	if r.InsuranceValid != nil {
		car.InsuranceValid = *r.InsuranceValid
	}
	if r.OwnedBy != "" {
		owner, _ := primitive.ObjectIDFromHex(r.OwnedBy)
		car.OwnedBy = &owner
	}
	if r.TotalRentals != nil {
		car.TotalRentals = *r.TotalRentals
	}
	if r.MinimumRentalDays != nil {
		car.MinimumRentalDays = *r.MinimumRentalDays
	}
	if r.MaximumRentalDays != nil {
		car.MaximumRentalDays = *r.MaximumRentalDays
	}
	return car
}

// UpdateCarRequest is a partial car. Only non-nil fields are written.
type UpdateCarRequest struct {
	Brand               *string    `json:"brand" validate:"omitempty,notblank"`
	Model               *string    `json:"model" validate:"omitempty,notblank"`
	Year                *int       `json:"year" validate:"omitempty,min=1990,caryear"`
	Price               *float64   `json:"price" validate:"omitempty,gte=0"`
	Category            *string    `json:"category" validate:"omitempty,oneof=sedan suv hatchback coupe convertible van truck luxury economy"`
	Transmission        *string    `json:"transmission" validate:"omitempty,oneof=automatic manual"`
	FuelType            *string    `json:"fuelType" validate:"omitempty,oneof=petrol diesel electric hybrid cng"`
	SeatingCapacity     *int       `json:"seatingCapacity" validate:"omitempty,min=2,max=15"`
	Location            *string    `json:"location" validate:"omitempty,notblank"`
	Images              *[]string  `json:"images" validate:"omitempty,max=5"`
	Description         *string    `json:"description" validate:"omitempty,min=5,max=2000"`
	Color               *string    `json:"color"`
	RegistrationNumber  *string    `json:"registrationNumber"`
	Mileage             *float64   `json:"mileage" validate:"omitempty,gte=0"`
	Features            *[]string  `json:"features" validate:"omitempty,carfeatures"`
	IsAvailable         *bool      `json:"isAvailable"`
	AvailableFrom       *time.Time `json:"availableFrom"`
	Rating              *float64   `json:"rating" validate:"omitempty,gte=0,lte=5"`
	TotalReviews        *int       `json:"totalReviews" validate:"omitempty,gte=0"`
	InsuranceValid      *bool      `json:"insuranceValid"`
	InsuranceExpiryDate *time.Time `json:"insuranceExpiryDate"`
	OwnedBy             *string    `json:"ownedBy" validate:"omitempty,objectid"`
	Status              *string    `json:"status" validate:"omitempty,oneof=active maintenance inactive rented"`
	TotalRentals        *int       `json:"totalRentals" validate:"omitempty,gte=0"`
	MinimumRentalDays   *int       `json:"minimumRentalDays" validate:"omitempty,min=1"`
	MaximumRentalDays   *int       `json:"maximumRentalDays" validate:"omitempty,min=1"`
}

func trimPtr(s *string, fold func(string) string) {
	if s == nil {
		return
	}
	*s = strings.TrimSpace(*s)
	if fold != nil {
		*s = fold(*s)
	}
}

func (r *UpdateCarRequest) normalize() {
	trimPtr(r.Brand, nil)
	trimPtr(r.Model, nil)
	trimPtr(r.Category, strings.ToLower)
	trimPtr(r.Transmission, strings.ToLower)
	trimPtr(r.FuelType, strings.ToLower)
	trimPtr(r.Location, nil)
	trimPtr(r.Description, nil)
	trimPtr(r.Color, nil)
	trimPtr(r.RegistrationNumber, strings.ToUpper)
	trimPtr(r.OwnedBy, nil)
	trimPtr(r.Status, strings.ToLower)
}

// set renders the $set document for the provided fields.
func (r *UpdateCarRequest) set() bson.M {
	set := bson.M{}
	put := func(key string, present bool, value func() interface{}) {
		if present {
			set[key] = value()
		}
	}
	put("brand", r.Brand != nil, func() interface{} { return *r.Brand })
	put("model", r.Model != nil, func() interface{} { return *r.Model })
	put("year", r.Year != nil, func() interface{} { return *r.Year })
	put("price", r.Price != nil, func() interface{} { return *r.Price })
	put("category", r.Category != nil, func() interface{} { return *r.Category })
	put("transmission", r.Transmission != nil, func() interface{} { return *r.Transmission })
	put("fuelType", r.FuelType != nil, func() interface{} { return *r.FuelType })
	put("seatingCapacity", r.SeatingCapacity != nil, func() interface{} { return *r.SeatingCapacity })
	put("location", r.Location != nil, func() interface{} { return *r.Location })
	put("images", r.Images != nil, func() interface{} { return *r.Images })
	put("description", r.Description != nil, func() interface{} { return *r.Description })
	put("color", r.Color != nil, func() interface{} {
		if *r.Color == "" {
			return models.DefaultColor
		}
		return *r.Color
	})
	put("registrationNumber", r.RegistrationNumber != nil, func() interface{} { return *r.RegistrationNumber })
	put("mileage", r.Mileage != nil, func() interface{} { return *r.Mileage })
	put("features", r.Features != nil, func() interface{} { return *r.Features })
	put("isAvailable", r.IsAvailable != nil, func() interface{} { return *r.IsAvailable })
	put("availableFrom", r.AvailableFrom != nil, func() interface{} { return r.AvailableFrom.UTC() })
	put("rating", r.Rating != nil, func() interface{} { return *r.Rating })
	put("totalReviews", r.TotalReviews != nil, func() interface{} { return *r.TotalReviews })
	put("insuranceValid", r.InsuranceValid != nil, func() interface{} { return *r.InsuranceValid })
	put("insuranceExpiryDate", r.InsuranceExpiryDate != nil, func() interface{} { return r.InsuranceExpiryDate.UTC() })
	put("ownedBy", r.OwnedBy != nil, func() interface{} {
		owner, _ := primitive.ObjectIDFromHex(*r.OwnedBy)
		return owner
	})
	put("status", r.Status != nil, func() interface{} { return *r.Status })
	put("totalRentals", r.TotalRentals != nil, func() interface{} { return *r.TotalRentals })
	put("minimumRentalDays", r.MinimumRentalDays != nil, func() interface{} { return *r.MinimumRentalDays })
	put("maximumRentalDays", r.MaximumRentalDays != nil, func() interface{} { return *r.MaximumRentalDays })
	return set
}

func rentalDaysError(min, max *int) error {
	if min != nil && max != nil && *min > *max {
		return validation.Errors{"Minimum rental days cannot exceed maximum rental days"}
	}
	return nil
}

// storedRentalDays prefers the requested value. A stored zero means the
// document predates the field and is not compared.
func storedRentalDays(requested *int, stored int) *int {
	if requested != nil {
		return requested
	}
	if stored == 0 {
		return nil
	}
	return &stored
}

// emptyBody reports whether raw carries no JSON fields at all.
func emptyBody(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	return len(fields) == 0
}

func (h *Handler) CreateCar(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badInput(c, err)
		return
	}
	if emptyBody(raw) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Request body is empty. Please send car data in JSON format.",
			"hint":    "Make sure Content-Type is set to application/json",
		})
		return
	}

	var req CreateCarRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		badInput(c, err)
		return
	}
	req.normalize()
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}
	if err := rentalDaysError(req.MinimumRentalDays, req.MaximumRentalDays); err != nil {
		badInput(c, err)
		return
	}

	car := req.car()
	ctx := c.Request.Context()
	if err := h.Cars.Create(ctx, car); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"message": "A car with this registration number already exists"})
			return
		}
		h.internalError(c, "create car", err)
		return
	}
	h.CarCache.Invalidate(ctx)

	h.Log.Info("car created", zap.String("carId", car.ID.Hex()), zap.String("car", car.DisplayName()))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Car created successfully",
		"data":    car,
	})
}

// GetAllCars serves the filtered, sorted and paginated catalogue.
func (h *Handler) GetAllCars(c *gin.Context) {
	q := c.Request.URL.Query()
	match, err := query.CarMatch(q)
	if err != nil {
		badQuery(c, err)
		return
	}
	sort := query.ParseSort(q.Get("sortBy"), q.Get("order"), query.CarSortFields)

	h.serveCars(c, "cars:"+cache.Key(q), "Cars retrieved successfully", match, sort)
}

// GetAvailableCars lists cars that can be rented now, newest first.
func (h *Handler) GetAvailableCars(c *gin.Context) {
	q := c.Request.URL.Query()
	sort := query.Sort{Field: "createdAt", Desc: true}

	h.serveCars(c, "available:"+cache.Key(q), "Available cars retrieved successfully", query.AvailableCarMatch(), sort)
}

func (h *Handler) serveCars(c *gin.Context, key, message string, match bson.M, sort query.Sort) {
	ctx := c.Request.Context()
	body, slot, ok := h.CarCache.Get(ctx, key)
	if ok {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
		return
	}

	page := pageFromQuery(c)
	cars, total, err := h.Cars.List(ctx, match, sort, page)
	if err != nil {
		h.internalError(c, "list cars", err)
		return
	}

	body, err = json.Marshal(newListResponse(message, cars, page, total))
	if err != nil {
		h.internalError(c, "encode cars", err)
		return
	}
	h.CarCache.Set(ctx, slot, body)

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
}

func (h *Handler) GetCarByID(c *gin.Context) {
	id, ok := objectIDParam(c, "car")
	if !ok {
		return
	}

	car, err := h.Cars.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found"})
		return
	}
	if err != nil {
		h.internalError(c, "get car", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Car retrieved successfully",
		"data":    car,
	})
}

func (h *Handler) UpdateCar(c *gin.Context) {
	id, ok := objectIDParam(c, "car")
	if !ok {
		return
	}

	var req UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	req.normalize()
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}
	if err := rentalDaysError(req.MinimumRentalDays, req.MaximumRentalDays); err != nil {
		badInput(c, err)
		return
	}

	set := req.set()
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update"})
		return
	}

	ctx := c.Request.Context()
	if (req.MinimumRentalDays == nil) != (req.MaximumRentalDays == nil) {
		current, err := h.Cars.Get(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Car not found"})
			return
		case err != nil:
			h.internalError(c, "update car: load rental days", err)
			return
		}
		if err := rentalDaysError(storedRentalDays(req.MinimumRentalDays, current.MinimumRentalDays),
			storedRentalDays(req.MaximumRentalDays, current.MaximumRentalDays)); err != nil {
			badInput(c, err)
			return
		}
	}

	car, err := h.Cars.Update(ctx, id, set)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found"})
		return
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": "A car with this registration number already exists"})
		return
	case err != nil:
		h.internalError(c, "update car", err)
		return
	}
	h.CarCache.Invalidate(ctx)

	c.JSON(http.StatusOK, gin.H{
		"message": "Car updated successfully",
		"data":    car,
	})
}

func (h *Handler) DeleteCar(c *gin.Context) {
	id, ok := objectIDParam(c, "car")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	car, err := h.Cars.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found"})
		return
	}
	if err != nil {
		h.internalError(c, "delete car", err)
		return
	}
	h.CarCache.Invalidate(ctx)

	c.JSON(http.StatusOK, gin.H{
		"message": "Car deleted successfully",
		"data": gin.H{
			"id":                 car.ID,
			"brand":              car.Brand,
			"model":              car.Model,
			"registrationNumber": car.RegistrationNumber,
		},
	})
}
