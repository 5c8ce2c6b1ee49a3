package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Cart represents a patron's pending line items. A cart holds items from
// at most one vendor at a time; VendorID is empty while the cart is empty.
type Cart struct {
	gorm.Model
	OwnerID        string     `gorm:"unique_index" json:"owner_id"`
	VendorID       string     `json:"vendor_id"`
	Items          []CartItem `gorm:"foreignkey:CartID" json:"items"`
	LastModifiedAt time.Time  `json:"last_modified_at"`
}

// CartItem represents one line in a cart. UnitPrice and PrepMinutes are
// captured from the catalog when the line is added and are not re-read
// on later renders.
type CartItem struct {
	gorm.Model
	CartID      uint    `gorm:"index" json:"-"`
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	PrepMinutes int     `json:"prep_minutes"`
	LineNote    string  `json:"line_note,omitempty"`
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total returns the sum of unit price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// EmptyCart returns the zero-value cart presented when an owner has no
// stored cart.
func EmptyCart(ownerID string) *Cart {
	return &Cart{
		OwnerID: ownerID,
		Items:   []CartItem{},
	}
}
