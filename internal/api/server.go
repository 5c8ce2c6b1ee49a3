// Package api exposes the cart and order core over HTTP. The canonical
// status vocabulary is translated at this boundary only; everything
// below it works with the typed status values.
package api

import (
	"errors"
	"net/http"

	"mensa/internal/cart"
	"mensa/internal/catalog"
	"mensa/internal/monitoring"
	"mensa/internal/orders"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP surface to the cart store, order factory and
// lifecycle manager.
type Server struct {
	Router *gin.Engine

	carts     *cart.Store
	factory   *orders.Factory
	lifecycle *orders.Manager
	catalog   *catalog.Catalog
	metrics   *monitoring.Metrics
	monitor   *monitoring.Monitor
	secret    []byte
}

// NewServer creates the API server and registers all routes.
func NewServer(carts *cart.Store, factory *orders.Factory, lifecycle *orders.Manager, cat *catalog.Catalog, metrics *monitoring.Metrics, monitor *monitoring.Monitor, secret []byte) *Server {
	s := &Server{
		Router:    gin.Default(),
		carts:     carts,
		factory:   factory,
		lifecycle: lifecycle,
		catalog:   cat,
		metrics:   metrics,
		monitor:   monitor,
		secret:    secret,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Mensa API is running"})
	})
	s.Router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.monitor.GetMetrics())
	})

	v1 := s.Router.Group("/api/v1")

	// Menu browsing is anonymous.
	v1.GET("/vendors", s.ListVendors)
	v1.GET("/vendors/:vendorId/menu", s.GetVendorMenu)

	authed := v1.Group("", s.AuthMiddleware())
	{
		authed.GET("/cart", s.GetCart)
		authed.POST("/cart/items", s.AddCartItem)
		authed.PATCH("/cart/items/:itemId", s.UpdateCartItem)
		authed.DELETE("/cart/items/:itemId", s.RemoveCartItem)
		authed.DELETE("/cart", s.ClearCart)

		authed.POST("/orders", s.CreateOrder)
		authed.GET("/orders", s.ListOrders)
		authed.GET("/orders/stats", s.OrderStats)
		authed.GET("/orders/:id", s.GetOrder)
		authed.GET("/orders/:id/history", s.OrderHistory)
		authed.PATCH("/orders/:id", s.TransitionOrder)

		authed.PATCH("/vendors/:vendorId", AdminOnly(), s.SetVendorOpen)
	}
}

// respondError maps core errors onto HTTP status codes per the error
// taxonomy: validation 400, missing entities 404, lifecycle conflicts
// 409. Anything unrecognized is wrapped as an opaque internal error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrVendorConflict),
		errors.Is(err, orders.ErrInvalidPaymentMethod),
		errors.Is(err, orders.ErrInvalidOrderKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrItemUnavailable),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, catalog.ErrVendorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, orders.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
