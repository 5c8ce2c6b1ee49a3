package api

import (
	"net/http"
	"strconv"
	"time"

	"mensa/internal/models"
	"mensa/internal/orders"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	Kind          string `json:"kind"`
	Notes         string `json:"notes"`
}

type transitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// CreateOrder converts the actor's cart into a placed order.
func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := models.ParseOrderKind(req.Kind)
	if !ok {
		respondError(c, orders.ErrInvalidOrderKind)
		return
	}

	order, err := s.factory.CreateOrder(actorFrom(c).ID, req.PaymentMethod, kind, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	s.metrics.RecordOrderPlaced(order)
	s.monitor.Increment("orders_placed")
	c.JSON(http.StatusCreated, s.lifecycle.View(order))
}

// ListOrders returns one page of the actor's orders. Status filtering
// uses the effective status, so lapsed orders are bucketed as expired
// even before the expiry write-back.
func (s *Server) ListOrders(c *gin.Context) {
	var filter orders.Filter

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		filter.Status = status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = to
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := s.lifecycle.List(actorFrom(c).ID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrder returns one order with its derived facts.
func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.lifecycle.Get(c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.lifecycle.View(order))
}

// OrderHistory returns the order's status audit trail.
func (s *Server) OrderHistory(c *gin.Context) {
	history, err := s.lifecycle.History(c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// TransitionOrder advances an order's status. Cancellation goes through
// the dedicated cancel path, which enforces the placed-only window.
func (s *Server) TransitionOrder(c *gin.Context) {
	var req transitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requested, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + req.Status})
		return
	}

	actor := actorFrom(c)
	orderID := c.Param("id")

	prior, err := s.lifecycle.Get(orderID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	from := prior.Status

	var order *models.Order
	if requested == models.OrderStatusCancelled {
		order, err = s.lifecycle.Cancel(orderID, actor, req.Reason)
	} else {
		order, err = s.lifecycle.Transition(orderID, requested, actor)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	s.metrics.RecordTransition(from, order.Status)
	c.JSON(http.StatusOK, s.lifecycle.View(order))
}

// OrderStats returns aggregate statistics for the actor.
func (s *Server) OrderStats(c *gin.Context) {
	stats, err := s.lifecycle.Stats(actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
