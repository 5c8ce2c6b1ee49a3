package models

import (
	"fmt"

	"github.com/jinzhu/gorm"
)

// Vendor represents a cafeteria outlet offering a catalog of menu items.
type Vendor struct {
	gorm.Model
	VendorID string `gorm:"unique_index" json:"vendor_id"`
	Name     string `json:"name"`
	Open     bool   `json:"open"`
}

// MenuItem represents a single orderable item offered by a vendor.
// Price and prep time are the catalog values; carts capture their own
// copy at add time.
type MenuItem struct {
	gorm.Model
	ItemID      string  `gorm:"unique_index" json:"item_id"`
	VendorID    string  `gorm:"index" json:"vendor_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
	PrepMinutes int     `json:"prep_minutes"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	MenuCategoryMain     MenuCategory = "main"
	MenuCategorySide     MenuCategory = "side"
	MenuCategorySnack    MenuCategory = "snack"
	MenuCategoryDessert  MenuCategory = "dessert"
	MenuCategoryBeverage MenuCategory = "beverage"
)

// ValidateMenuItem validates a menu item before it enters the catalog.
func ValidateMenuItem(item *MenuItem) error {
	if item.ItemID == "" {
		return fmt.Errorf("menu item id is required")
	}
	if item.VendorID == "" {
		return fmt.Errorf("menu item vendor is required")
	}
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price <= 0 {
		return fmt.Errorf("menu item price must be greater than 0")
	}
	if item.PrepMinutes <= 0 {
		return fmt.Errorf("menu item prep time must be greater than 0")
	}
	return nil
}
