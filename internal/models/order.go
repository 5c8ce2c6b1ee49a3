package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a placed cafeteria order. The item list and all
// monetary fields are frozen at creation; only Status, CompletedAt and
// the audit trail change afterwards.
type Order struct {
	gorm.Model
	OrderID       string      `gorm:"unique_index" json:"order_id"`
	OwnerID       string      `gorm:"index" json:"owner_id"`
	VendorID      string      `json:"vendor_id"`
	Items         []OrderItem `gorm:"foreignkey:OrderUID;association_foreignkey:OrderID" json:"items"`
	PaymentMethod string      `json:"payment_method"`
	Kind          OrderKind   `json:"kind"`
	Notes         string      `json:"notes,omitempty"`
	Subtotal      float64     `json:"subtotal"`
	Surcharge     float64     `json:"surcharge"`
	Total         float64     `json:"total"`
	Status        OrderStatus `gorm:"index" json:"status"`
	PlacedAt      time.Time   `json:"placed_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// OrderItem represents an immutable snapshot of a cart line at checkout.
type OrderItem struct {
	gorm.Model
	OrderUID    string  `gorm:"index" json:"-"`
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
	PrepMinutes int     `json:"prep_minutes"`
	LineNote    string  `json:"line_note,omitempty"`
}

// OrderStatusChange is an append-only audit record of a status change.
type OrderStatusChange struct {
	gorm.Model
	OrderUID  string      `gorm:"index" json:"-"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Actor     string      `json:"actor"`
	Reason    string      `json:"reason,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusReady     OrderStatus = "ready_for_pickup"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusClosed, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// ParseOrderStatus maps an external status string to the canonical
// vocabulary. This is the only place external spellings are accepted.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPlaced, OrderStatusReady, OrderStatusPickedUp,
		OrderStatusClosed, OrderStatusCancelled, OrderStatusExpired:
		return OrderStatus(s), true
	}
	return "", false
}

// OrderKind distinguishes normal orders from expedited ones, which carry
// a fixed surcharge.
type OrderKind string

const (
	OrderKindNormal    OrderKind = "normal"
	OrderKindExpedited OrderKind = "expedited"
)

// ParseOrderKind maps an external kind string to the canonical set.
// An empty string defaults to a normal order.
func ParseOrderKind(s string) (OrderKind, bool) {
	switch OrderKind(s) {
	case OrderKindNormal, OrderKindExpedited:
		return OrderKind(s), true
	case "":
		return OrderKindNormal, true
	}
	return "", false
}

// Payment method labels accepted at checkout. Payment is recorded as a
// label only; there is no settlement in this system.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodMealPlan = "meal_plan"
)

// ValidPaymentMethod reports whether the label is in the closed set.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMealPlan:
		return true
	}
	return false
}
