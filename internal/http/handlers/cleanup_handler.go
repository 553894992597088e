package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/services"
)

// CleanupResponse reports the outcome of one maintenance sweep.
type CleanupResponse struct {
	Success bool `json:"success"`
	services.SweepReport
}

// Cleanup godoc
// @ID          cleanup
// @Summary     Run the maintenance sweep
// @Description Deletes stale bot sessions and expires pending proposals past their lifetime. Each half runs even if the other fails; the flags report which succeeded.
// @Tags        Maintenance
// @Produce     json
// @Success     200  {object}  handlers.CleanupResponse
// @Router      /cleanup [get]
// @Router      /cleanup [post]
func (h *Handlers) Cleanup(c *gin.Context) {
	rep := h.sweeper.Sweep(c.Request.Context())
	ok(c, http.StatusOK, CleanupResponse{Success: true, SweepReport: rep})
}
