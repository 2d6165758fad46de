// README: Internal handlers for the sweep trigger and single auto-assign.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sweeply/internal/modules/assignment"
	"sweeply/internal/types"
)

type AdminHandler struct {
	assignment *assignment.Service
}

func NewAdminHandler(svc *assignment.Service) *AdminHandler {
	return &AdminHandler{assignment: svc}
}

// Sweep runs one auto-assignment pass. Idempotent; any external scheduler may
// call it on whatever cadence it likes.
func (h *AdminHandler) Sweep(c *gin.Context) {
	res, err := h.assignment.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *AdminHandler) AutoAssign(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	cleanerID, err := h.assignment.AutoAssign(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cleaner_id": cleanerID})
}
