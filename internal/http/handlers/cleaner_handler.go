// README: Cleaner handlers for the job board and accept/reject/complete.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sweeply/internal/modules/assignment"
	"sweeply/internal/modules/booking"
	"sweeply/internal/types"
)

type CleanerHandler struct {
	assignment *assignment.Service
	bookings   *booking.Service
}

func NewCleanerHandler(assignSvc *assignment.Service, bookingSvc *booking.Service) *CleanerHandler {
	return &CleanerHandler{assignment: assignSvc, bookings: bookingSvc}
}

type jobOfferView struct {
	BookingID     types.ID `json:"booking_id"`
	ServiceType   string   `json:"service_type"`
	Date          string   `json:"date"`
	StartMin      int      `json:"start_min"`
	DurationHours int      `json:"duration_hours"`
	Postcode      string   `json:"postcode"`
	PriceAmount   int64    `json:"price_amount"`
	PriceCurrency string   `json:"price_currency"`
	Price         float64  `json:"price"`
	DistanceMiles float64  `json:"distance_miles"`
}

func (h *CleanerHandler) ListJobs(c *gin.Context) {
	cleanerID := c.Query("cleaner_id")
	if cleanerID == "" {
		writeError(c, http.StatusBadRequest, "missing cleaner_id")
		return
	}
	offers, err := h.assignment.ListAvailableJobs(c.Request.Context(), types.ID(cleanerID))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]jobOfferView, 0, len(offers))
	for _, o := range offers {
		views = append(views, jobOfferView{
			BookingID:     o.BookingID,
			ServiceType:   o.ServiceType,
			Date:          o.Date.Format("2006-01-02"),
			StartMin:      o.StartMin,
			DurationHours: o.DurationHours,
			Postcode:      o.Postcode,
			PriceAmount:   o.Price.Amount,
			PriceCurrency: o.Price.Currency,
			Price:         o.Price.Pounds(),
			DistanceMiles: o.DistanceMiles,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"jobs": views})
}

func (h *CleanerHandler) cleanerID(c *gin.Context) (types.ID, bool) {
	cleanerID := c.Query("cleaner_id")
	if cleanerID == "" {
		writeError(c, http.StatusBadRequest, "missing cleaner_id")
		return "", false
	}
	return types.ID(cleanerID), true
}

func (h *CleanerHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	cleanerID, ok := h.cleanerID(c)
	if !ok {
		return
	}
	if err := h.assignment.Accept(c.Request.Context(), types.ID(id), cleanerID); err != nil {
		writeBookingError(c, err)
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": b.Status, "cleaner_id": cleanerID})
}

func (h *CleanerHandler) Reject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	cleanerID, ok := h.cleanerID(c)
	if !ok {
		return
	}
	if err := h.assignment.Reject(c.Request.Context(), types.ID(id), cleanerID); err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rejected": true})
}

func (h *CleanerHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	cleanerID, ok := h.cleanerID(c)
	if !ok {
		return
	}
	if err := h.assignment.Complete(c.Request.Context(), types.ID(id), cleanerID); err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCompleted})
}

func (h *CleanerHandler) ListAssigned(c *gin.Context) {
	cleanerID, ok := h.cleanerID(c)
	if !ok {
		return
	}
	bs, err := h.bookings.ListByCleaner(c.Request.Context(), cleanerID)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": bs})
}
