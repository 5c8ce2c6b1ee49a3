package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mensa/internal/models"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	// Check if our metric is present
	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}

	// Check value
	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	// Check uptime presence
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_Increment(t *testing.T) {
	m := NewMonitor()

	m.Increment("requests_total")
	m.Increment("requests_total")
	m.Increment("requests_total")

	value, exists := m.GetMetric("requests_total")
	if !exists {
		t.Fatalf("Expected 'requests_total' to be present in metrics, but it was not")
	}
	if value != 3 {
		t.Errorf("Expected 'requests_total' to be 3, but got %v", value)
	}

	// Incrementing over a non-counter value starts over from one.
	m.RecordMetric("mixed", "not-a-counter")
	m.Increment("mixed")
	value, _ = m.GetMetric("mixed")
	if value != 1 {
		t.Errorf("Expected 'mixed' to be 1 after incrementing a non-counter, but got %v", value)
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	m.Reset()

	metrics := m.GetMetrics()

	// Our test metric should be gone, but uptime should still be there
	_, exists := metrics["test_metric"]
	if exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}

	// Uptime should still be present (it's added on GetMetrics call)
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordCartOp("add_item", nil)
	m.RecordOrderPlaced(&models.Order{
		VendorID: "grill-house",
		Kind:     models.OrderKindNormal,
		Total:    12.50,
	})
	m.RecordTransition(models.OrderStatusPlaced, models.OrderStatusReady)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from metrics handler, got %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`cart_operations_total{operation="add_item",result="ok"} 1`,
		`orders_placed_total{kind="normal",vendor="grill-house"} 1`,
		`order_transitions_total{from="placed",to="ready_for_pickup"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics output to contain %q, but it did not", want)
		}
	}
}
