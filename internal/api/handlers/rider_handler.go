// server/internal/api/handlers/rider_handler.go
package handlers

import (
	"errors"
	"net/http"

	"darkstore-dispatch-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

type RiderHandler struct {
	Riders store.RiderStoreI
}

// GetAssignableRiders handles GET /stores/:storeID/riders/assignable. The
// returned order is the allocation order: least-loaded first.
func (h *RiderHandler) GetAssignableRiders(c *gin.Context) {
	storeID := c.Param("storeID")

	riders, err := h.Riders.FindAssignable(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query riders"})
		return
	}
	c.JSON(http.StatusOK, riders)
}

// GetRider handles GET /stores/:storeID/riders/:riderID.
func (h *RiderHandler) GetRider(c *gin.Context) {
	storeID := c.Param("storeID")
	riderID := c.Param("riderID")

	rider, err := h.Riders.GetByRiderID(c.Request.Context(), storeID, riderID)
	if err != nil {
		if errors.Is(err, store.ErrRiderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rider"})
		return
	}
	c.JSON(http.StatusOK, rider)
}
