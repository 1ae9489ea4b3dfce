// server/internal/api/handlers/order_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"darkstore-dispatch-api-server/internal/models"
	"darkstore-dispatch-api-server/internal/sla"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Orders store.OrderStoreI
}

// orderSLAView decorates an order with the derived SLA numbers the dispatch
// dashboard sorts and colors by.
type orderSLAView struct {
	models.Order
	SLARemainingSeconds int64           `json:"slaRemainingSeconds"`
	SLAThreatLevel      sla.ThreatLevel `json:"slaThreatLevel"`
}

func withSLA(order models.Order, now time.Time) orderSLAView {
	return orderSLAView{
		Order:               order,
		SLARemainingSeconds: int64(sla.TimeRemaining(order.SLADeadline, now).Seconds()),
		SLAThreatLevel:      sla.Level(order.SLADeadline, now),
	}
}

// GetReadyOrders handles GET /stores/:storeID/orders/ready.
func (h *OrderHandler) GetReadyOrders(c *gin.Context) {
	storeID := c.Param("storeID")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	orders, err := h.Orders.FindReady(c.Request.Context(), storeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query ready orders"})
		return
	}

	now := time.Now()
	views := make([]orderSLAView, 0, len(orders))
	for _, order := range orders {
		views = append(views, withSLA(order, now))
	}
	c.JSON(http.StatusOK, views)
}

// GetOrder handles GET /stores/:storeID/orders/:orderID.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	order, err := h.Orders.GetByOrderID(c.Request.Context(), storeID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}

	c.JSON(http.StatusOK, withSLA(*order, time.Now()))
}
