package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mensa/internal/cart"
	"mensa/internal/catalog"
	"mensa/internal/database"
	"mensa/internal/models"
	"mensa/internal/monitoring"
	"mensa/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	cat := catalog.New(db)
	carts := cart.NewStore(db, cat, 0)
	factory := orders.NewFactory(carts, 0)
	lifecycle := orders.NewManager(db, 0, nil, 0)

	return NewServer(carts, factory, lifecycle, cat, monitoring.NewMetrics(), monitoring.NewMonitor(), testSecret)
}

func token(t *testing.T, ownerID string, admin bool) string {
	t.Helper()
	signed, err := SignToken(testSecret, ownerID, admin, time.Hour)
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, server *Server, method, path, bearer string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func TestHealthAndVendorsArePublic(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "GET", "/api/v1/vendors", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var vendors []models.Vendor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vendors))
	assert.NotEmpty(t, vendors)

	w = doRequest(t, server, "GET", "/api/v1/vendors/grill-house/menu", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "GET", "/api/v1/vendors/no-such-vendor/menu", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, "GET", "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, server, "GET", "/api/v1/cart", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartFlow(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, "student-1", false)

	// Empty cart comes back for a fresh owner.
	w := doRequest(t, server, "GET", "/api/v1/cart", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Empty(t, current.Items)

	// Add two items, the first with default quantity.
	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gh-burger"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gh-fries", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, "grill-house", current.VendorID)
	assert.Len(t, current.Items, 2)

	// A second vendor's item is rejected.
	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gb-salad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown items surface as not found.
	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "no-such-item"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Update and remove lines.
	w = doRequest(t, server, "PATCH", "/api/v1/cart/items/gh-fries", bearer,
		map[string]interface{}{"quantity": 3})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "PATCH", "/api/v1/cart/items/gh-fries", bearer,
		map[string]interface{}{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, "DELETE", "/api/v1/cart/items/gh-burger", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Len(t, current.Items, 1)

	w = doRequest(t, server, "DELETE", "/api/v1/cart", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Empty(t, current.Items)
	assert.Empty(t, current.VendorID)
}

func TestCheckoutFlow(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, "student-1", false)

	// Checkout with an empty cart is a state error.
	w := doRequest(t, server, "POST", "/api/v1/orders", bearer,
		map[string]interface{}{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gh-burger", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	// Bad payment label is a validation error; the cart survives.
	w = doRequest(t, server, "POST", "/api/v1/orders", bearer,
		map[string]interface{}{"payment_method": "iou"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, "POST", "/api/v1/orders", bearer,
		map[string]interface{}{"payment_method": "meal_plan", "kind": "expedited", "notes": "no pickles"})
	require.Equal(t, http.StatusCreated, w.Code)

	var placed orders.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, models.OrderStatusPlaced, placed.Status)
	assert.Equal(t, models.OrderStatusPlaced, placed.EffectiveStatus)
	assert.InDelta(t, 14.00, placed.Total, 0.001) // 2 x 6.50 + 1.00 surcharge
	assert.False(t, placed.EstimatedReadyAt.IsZero())

	// Cart is empty right after.
	w = doRequest(t, server, "GET", "/api/v1/cart", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Empty(t, current.Items)
}

func placeTestOrder(t *testing.T, server *Server, bearer string) orders.OrderView {
	t.Helper()
	w := doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gh-burger"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, server, "POST", "/api/v1/orders", bearer,
		map[string]interface{}{"payment_method": "card"})
	require.Equal(t, http.StatusCreated, w.Code)

	var placed orders.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	return placed
}

func TestOrderTransitions(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, "student-1", false)
	staff := token(t, "staff-1", true)
	placed := placeTestOrder(t, server, bearer)

	// Skipping ready is illegal.
	w := doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, staff,
		map[string]interface{}{"status": "picked_up"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Another patron cannot even see the order.
	w = doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, token(t, "student-2", false),
		map[string]interface{}{"status": "cancelled"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Staff advance it; the owner picks it up through the same endpoint.
	w = doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, staff,
		map[string]interface{}{"status": "ready_for_pickup"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, bearer,
		map[string]interface{}{"status": "picked_up"})
	require.Equal(t, http.StatusOK, w.Code)
	var view orders.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.NotNil(t, view.CompletedAt)

	// Cancellation window closed long ago.
	w = doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, bearer,
		map[string]interface{}{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown vocabulary is rejected at the boundary.
	w = doRequest(t, server, "PATCH", "/api/v1/orders/"+placed.OrderID, staff,
		map[string]interface{}{"status": "en_proceso"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// History shows the full trail.
	w = doRequest(t, server, "GET", "/api/v1/orders/"+placed.OrderID+"/history", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.OrderStatusChange
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 3)
}

func TestListAndStats(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, "student-1", false)
	placed := placeTestOrder(t, server, bearer)

	w := doRequest(t, server, "GET", "/api/v1/orders?status=placed", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page orders.OrderPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Orders, 1)
	assert.Equal(t, placed.OrderID, page.Orders[0].OrderID)

	w = doRequest(t, server, "GET", "/api/v1/orders?status=pendiente", bearer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, "GET", "/api/v1/orders?from=not-a-time", bearer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, "GET", "/api/v1/orders/stats", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats orders.UserStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Zero(t, stats.TotalSpent) // nothing closed yet
}

func TestVendorToggleIsStaffOnly(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, "student-1", false)
	staff := token(t, "staff-1", true)

	w := doRequest(t, server, "PATCH", "/api/v1/vendors/grill-house", bearer,
		map[string]interface{}{"open": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, server, "PATCH", "/api/v1/vendors/grill-house", staff,
		map[string]interface{}{"open": false})
	require.Equal(t, http.StatusOK, w.Code)

	// A closed vendor's items cannot be added.
	w = doRequest(t, server, "POST", "/api/v1/cart/items", bearer,
		map[string]interface{}{"item_id": "gh-burger"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
