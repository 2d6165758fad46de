// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sweeply/internal/modules/assignment"
	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, cleaner.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrAlreadyAssigned),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, assignment.ErrNotEligible):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, assignment.ErrNoEligibleCandidate):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
