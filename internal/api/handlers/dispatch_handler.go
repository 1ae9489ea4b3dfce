// server/internal/api/handlers/dispatch_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"darkstore-dispatch-api-server/internal/dispatch"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

// DispatcherI is the slice of the dispatch service the handler needs.
type DispatcherI interface {
	DispatchBatch(ctx context.Context, req dispatch.BatchRequest) (*dispatch.Result, error)
	AssignToRider(ctx context.Context, req dispatch.ManualRequest) (*dispatch.Result, error)
}

type DispatchHandler struct {
	Dispatcher DispatcherI
}

type BatchDispatchPayload struct {
	OrderIDs   []string `json:"orderIds"`
	AutoAssign bool     `json:"autoAssign"`
	RiderID    string   `json:"riderId"`
}

type ManualAssignPayload struct {
	OrderIDs    []string `json:"orderIds" binding:"required"`
	RiderID     string   `json:"riderId" binding:"required"`
	OverrideSLA bool     `json:"overrideSla"`
}

// DispatchBatch handles POST /stores/:storeID/dispatch/batch. 200 means at
// least one order went out; the skipped list tells the rest of the story.
// Zero dispatched is a 400 with the full diagnostic so the operator can see
// why the queue is stuck.
func (h *DispatchHandler) DispatchBatch(c *gin.Context) {
	storeID := c.Param("storeID")

	var payload BatchDispatchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A pinned rider makes this a manual assignment regardless of autoAssign.
	var result *dispatch.Result
	var err error
	if payload.RiderID != "" {
		result, err = h.Dispatcher.AssignToRider(c.Request.Context(), dispatch.ManualRequest{
			StoreID:  storeID,
			OrderIDs: payload.OrderIDs,
			RiderID:  payload.RiderID,
			Actor:    c.GetString("user_email"),
		})
	} else {
		result, err = h.Dispatcher.DispatchBatch(c.Request.Context(), dispatch.BatchRequest{
			StoreID:    storeID,
			OrderIDs:   payload.OrderIDs,
			AutoAssign: payload.AutoAssign,
			Actor:      c.GetString("user_email"),
		})
	}
	if err != nil {
		respondDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AssignToRider handles POST /stores/:storeID/dispatch/assign.
func (h *DispatchHandler) AssignToRider(c *gin.Context) {
	storeID := c.Param("storeID")

	var payload ManualAssignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Dispatcher.AssignToRider(c.Request.Context(), dispatch.ManualRequest{
		StoreID:     storeID,
		OrderIDs:    payload.OrderIDs,
		RiderID:     payload.RiderID,
		OverrideSLA: payload.OverrideSLA,
		Actor:       c.GetString("user_email"),
	})
	if err != nil {
		respondDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dispatchId":     result.DispatchIDs[0],
		"riderId":        payload.RiderID,
		"ordersAssigned": result.OrdersDispatched,
		"skipped":        result.Skipped,
	})
}

func respondDispatchError(c *gin.Context, err error) {
	var nothing *dispatch.NothingDispatchedError
	switch {
	case errors.As(err, &nothing):
		c.JSON(http.StatusBadRequest, gin.H{"error": nothing.Error(), "details": nothing.Diag})
	case errors.Is(err, dispatch.ErrNoOrders):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dispatch.ErrNoAvailableRiders):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "details": gin.H{"availableRiders": 0}})
	case errors.Is(err, dispatch.ErrRiderOffline):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrRiderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch orders"})
	}
}
