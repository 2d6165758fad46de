// README: Booking handlers for create/get/cancel/payment/rating.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sweeply/internal/modules/booking"
	"sweeply/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	ClientID      string `json:"client_id"`
	ServiceType   string `json:"service_type"`
	DurationHours int    `json:"duration_hours"`
	Date          string `json:"date"` // "2006-01-02"
	StartMin      int    `json:"start_min"`
	Timezone      string `json:"timezone"`
	Postcode      string `json:"postcode"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ClientID == "" || req.ServiceType == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = "Europe/London"
	}
	id, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		ClientID:      types.ID(req.ClientID),
		ServiceType:   booking.ServiceType(req.ServiceType),
		DurationHours: req.DurationHours,
		Schedule:      booking.Schedule{Date: date, StartMin: req.StartMin, Timezone: tz},
		Postcode:      req.Postcode,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"booking_id": id, "status": booking.StatusPending})
}

type bookingView struct {
	BookingID      types.ID       `json:"booking_id"`
	Status         booking.Status `json:"status"`
	Payment        string         `json:"payment_status"`
	CleanerID      *types.ID      `json:"cleaner_id,omitempty"`
	AssignmentType string         `json:"assignment_type,omitempty"`
	ServiceType    string         `json:"service_type"`
	DurationHours  int            `json:"duration_hours"`
	PriceAmount    int64          `json:"price_amount"`
	PriceCurrency  string         `json:"price_currency"`
	Price          float64        `json:"price"`
	Date           string         `json:"date"`
	StartMin       int            `json:"start_min"`
	Postcode       string         `json:"postcode"`
	Rating         *int           `json:"rating,omitempty"`
}

func viewOf(b *booking.Booking, now time.Time) bookingView {
	return bookingView{
		BookingID:      b.ID,
		Status:         b.EffectiveStatus(now),
		Payment:        string(b.Payment),
		CleanerID:      b.CleanerID,
		AssignmentType: b.AssignmentType,
		ServiceType:    string(b.Service.Type),
		DurationHours:  b.Service.DurationHours,
		PriceAmount:    b.Service.Price.Amount,
		PriceCurrency:  b.Service.Price.Currency,
		Price:          b.Service.Price.Pounds(),
		Date:           b.Schedule.Date.Format("2006-01-02"),
		StartMin:       b.Schedule.StartMin,
		Postcode:       b.Postcode,
		Rating:         b.Rating,
	}
}

func (h *BookingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewOf(b, time.Now()))
}

type cancelReq struct {
	ActorType string `json:"actor_type"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ActorType == "" {
		req.ActorType = "client"
	}
	var actorID *types.ID
	if req.ActorID != "" {
		aid := types.ID(req.ActorID)
		actorID = &aid
	}
	err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(id),
		ActorType: req.ActorType,
		ActorID:   actorID,
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCancelled})
}

// PaymentCaptured is the webhook-style signal from the payment collaborator.
func (h *BookingHandler) PaymentCaptured(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	if err := h.bookings.CapturePayment(c.Request.Context(), types.ID(id)); err != nil {
		writeBookingError(c, err)
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": b.Status})
}

type rateReq struct {
	ClientID string  `json:"client_id"`
	Rating   int     `json:"rating"`
	Review   *string `json:"review"`
}

func (h *BookingHandler) Rate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.bookings.Rate(c.Request.Context(), booking.RateCommand{
		BookingID: types.ID(id),
		ClientID:  types.ID(req.ClientID),
		Rating:    req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rating": req.Rating})
}

func (h *BookingHandler) ListByClient(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		writeError(c, http.StatusBadRequest, "missing client_id")
		return
	}
	bs, err := h.bookings.ListByClient(c.Request.Context(), types.ID(clientID))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	now := time.Now()
	views := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		views = append(views, viewOf(b, now))
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": views})
}
