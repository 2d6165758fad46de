// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sweeply/internal/http/handlers"
	"sweeply/internal/http/middleware"
	"sweeply/internal/modules/assignment"
	"sweeply/internal/modules/booking"
)

type RouterDeps struct {
	Bookings   *booking.Service
	Assignment *assignment.Service
	Log        zerolog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	r.POST("/api/bookings", bookingHandler.Create)
	r.GET("/api/bookings", bookingHandler.ListByClient)
	r.GET("/api/bookings/:id", bookingHandler.Get)
	r.POST("/api/bookings/:id/cancel", bookingHandler.Cancel)
	r.POST("/api/bookings/:id/payment-captured", bookingHandler.PaymentCaptured)
	r.POST("/api/bookings/:id/rating", bookingHandler.Rate)

	cleanerHandler := handlers.NewCleanerHandler(deps.Assignment, deps.Bookings)
	r.GET("/api/cleaners/jobs", cleanerHandler.ListJobs)
	r.GET("/api/cleaners/bookings", cleanerHandler.ListAssigned)
	r.POST("/api/cleaners/jobs/:id/accept", cleanerHandler.Accept)
	r.POST("/api/cleaners/jobs/:id/reject", cleanerHandler.Reject)
	r.POST("/api/cleaners/jobs/:id/complete", cleanerHandler.Complete)

	adminHandler := handlers.NewAdminHandler(deps.Assignment)
	r.POST("/internal/sweep", adminHandler.Sweep)
	r.POST("/internal/bookings/:id/auto-assign", adminHandler.AutoAssign)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
