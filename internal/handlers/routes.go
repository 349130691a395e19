package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/carrental-api/internal/middleware"
)

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "Car Rental Backend is running")
}

// RegisterRoutes mounts the API on r. loginLimiter throttles POST /users/login.
func (h *Handler) RegisterRoutes(r gin.IRouter, loginLimiter *middleware.RateLimiter) {
	auth := middleware.VerifyToken(h.Tokens)
	admin := middleware.IsAdmin()

	r.GET("/", h.Health)

	users := r.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", middleware.RateLimit(loginLimiter), h.Login)
		users.GET("/validate", h.ValidateUser)

		users.GET("/all", auth, admin, h.GetAllUsers)
		users.PUT("/update/:id", auth, admin, h.UpdateUser)
		users.DELETE("/delete/:id", auth, admin, h.DeleteUser)
	}

	cars := r.Group("/cars")
	{
		cars.GET("", h.GetAllCars)
		cars.GET("/available", h.GetAvailableCars)
		cars.GET("/:id", h.GetCarByID)

		cars.POST("", auth, admin, h.CreateCar)
		cars.PUT("/:id", auth, admin, h.UpdateCar)
		cars.DELETE("/:id", auth, admin, h.DeleteCar)
	}

	bookings := r.Group("/bookings")
	{
		bookings.POST("", auth, h.BookCar)
		bookings.GET("/my-bookings", auth, h.GetUserBookings)

		bookings.GET("", auth, admin, h.GetAllBookings)
		bookings.PUT("/:id", auth, admin, h.UpdateBooking)
		bookings.DELETE("/:id", auth, admin, h.DeleteBooking)
	}
}
