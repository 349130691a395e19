package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/middleware"
	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/validation"
)

type BookingRequest struct {
	Car         string   `json:"car" validate:"required,objectid"`
	StartDate   string   `json:"startDate" validate:"required"`
	EndDate     string   `json:"endDate" validate:"required"`
	TotalAmount *float64 `json:"totalAmount" validate:"required,gte=0"`
	Status      string   `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}

type UpdateBookingRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}

// booking checks the request and converts it for userID.
func (r *BookingRequest) booking(userID primitive.ObjectID) (*models.Booking, error) {
	r.Car = strings.TrimSpace(r.Car)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	if err := validation.Struct(r); err != nil {
		return nil, err
	}

	start, err := query.ParseDate(r.StartDate)
	if err != nil {
		return nil, validation.Errors{"Invalid start date"}
	}
	end, err := query.ParseDate(r.EndDate)
	if err != nil {
		return nil, validation.Errors{"Invalid end date"}
	}
	if !end.After(start) {
		return nil, validation.Errors{"End date must be after start date"}
	}

	car, _ := primitive.ObjectIDFromHex(r.Car)
	return &models.Booking{
		Car:         car,
		User:        userID,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: *r.TotalAmount,
		Status:      r.Status,
	}, nil
}

func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User authentication required"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// BookCar books a car for the authenticated caller. Only admins may choose
// the initial status; everyone else starts pending.
func (h *Handler) BookCar(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	booking, err := req.booking(userID)
	if err != nil {
		badInput(c, err)
		return
	}
	if c.GetString(middleware.ContextUserRole) != models.RoleAdmin {
		booking.Status = models.BookingPending
	}

	ctx := c.Request.Context()
	car, err := h.Cars.Get(ctx, booking.Car)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found"})
		return
	}
	if err != nil {
		h.internalError(c, "book car: load car", err)
		return
	}
	if !car.IsAvailableForRental() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Car is currently unavailable"})
		return
	}

	overlap, err := h.Bookings.HasOverlap(ctx, booking.Car, booking.StartDate, booking.EndDate)
	if err != nil {
		h.internalError(c, "book car: check overlap", err)
		return
	}
	if overlap {
		c.JSON(http.StatusConflict, gin.H{"message": "Car is already booked for the selected dates"})
		return
	}

	if err := h.Bookings.Create(ctx, booking); err != nil {
		h.internalError(c, "book car: create booking", err)
		return
	}

	h.Log.Info("car booked",
		zap.String("bookingId", booking.ID.Hex()),
		zap.String("car", car.DisplayName()),
		zap.String("userId", userID.Hex()),
	)
	h.Notifier.BookingCreated(booking)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Car booked successfully",
		"data":    booking,
	})
}

// GetUserBookings lists the caller's own bookings, newest first.
func (h *Handler) GetUserBookings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page := pageFromQuery(c)
	bookings, total, err := h.Bookings.ListForUser(c.Request.Context(), userID, page)
	if err != nil {
		h.internalError(c, "list user bookings", err)
		return
	}

	c.JSON(http.StatusOK, newListResponse("User bookings retrieved successfully", bookings, page, total))
}

func (h *Handler) GetAllBookings(c *gin.Context) {
	q := c.Request.URL.Query()
	match, err := query.BookingMatch(q)
	if err != nil {
		badQuery(c, err)
		return
	}
	sort := query.ParseSort(q.Get("sortBy"), q.Get("order"), query.BookingSortFields)
	page := pageFromQuery(c)

	bookings, total, err := h.Bookings.ListAll(c.Request.Context(), match, sort, page)
	if err != nil {
		h.internalError(c, "list bookings", err)
		return
	}

	c.JSON(http.StatusOK, newListResponse("All bookings retrieved successfully", bookings, page, total))
}

// UpdateBooking changes the booking status. An omitted status leaves it as is.
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := objectIDParam(c, "booking")
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	if req.Status != nil {
		*req.Status = strings.ToLower(strings.TrimSpace(*req.Status))
	}
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		booking *models.Booking
		err     error
	)
	if req.Status == nil || *req.Status == "" {
		booking, err = h.Bookings.FindByID(ctx, id)
	} else {
		booking, err = h.Bookings.UpdateStatus(ctx, id, *req.Status)
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
		return
	}
	if err != nil {
		h.internalError(c, "update booking", err)
		return
	}

	if req.Status != nil && *req.Status != "" {
		h.Notifier.BookingUpdated(booking)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking updated successfully",
		"data":    booking,
	})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := objectIDParam(c, "booking")
	if !ok {
		return
	}

	booking, err := h.Bookings.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
		return
	}
	if err != nil {
		h.internalError(c, "delete booking", err)
		return
	}

	h.Notifier.BookingDeleted(booking)
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully"})
}
