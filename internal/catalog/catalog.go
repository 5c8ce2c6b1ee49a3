// Package catalog resolves menu items and vendor availability. It is
// read-only from the cart and order packages' point of view; vendors and
// items are managed through the admin surface.
package catalog

import (
	"errors"

	"mensa/internal/models"

	"github.com/jinzhu/gorm"
)

// ErrItemNotFound is returned when an item id does not resolve to a
// catalog entry.
var ErrItemNotFound = errors.New("menu item not found")

// ErrVendorNotFound is returned when a vendor id does not resolve to a
// catalog entry.
var ErrVendorNotFound = errors.New("vendor not found")

// ItemInfo is the catalog's answer for a single menu item lookup.
type ItemInfo struct {
	ItemID      string
	VendorID    string
	Name        string
	Price       float64
	Available   bool
	PrepMinutes int
}

// Lookup is the read interface consumed by the cart store.
type Lookup interface {
	GetItem(itemID string) (*ItemInfo, error)
	IsVendorOpen(vendorID string) (bool, error)
}

// Catalog is the GORM-backed catalog implementation.
type Catalog struct {
	db *gorm.DB
}

// New creates a catalog over the given database handle.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// GetItem resolves an item id to its current catalog record.
func (c *Catalog) GetItem(itemID string) (*ItemInfo, error) {
	var item models.MenuItem
	if err := c.db.Where("item_id = ?", itemID).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &ItemInfo{
		ItemID:      item.ItemID,
		VendorID:    item.VendorID,
		Name:        item.Name,
		Price:       item.Price,
		Available:   item.Available,
		PrepMinutes: item.PrepMinutes,
	}, nil
}

// IsVendorOpen reports whether the vendor is currently accepting orders.
func (c *Catalog) IsVendorOpen(vendorID string) (bool, error) {
	var vendor models.Vendor
	if err := c.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return false, ErrVendorNotFound
		}
		return false, err
	}
	return vendor.Open, nil
}

// ListVendors returns all vendors.
func (c *Catalog) ListVendors() ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := c.db.Order("vendor_id").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// ListMenu returns the menu for one vendor.
func (c *Catalog) ListMenu(vendorID string) ([]models.MenuItem, error) {
	var vendor models.Vendor
	if err := c.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	var items []models.MenuItem
	if err := c.db.Where("vendor_id = ?", vendorID).Order("item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SetVendorOpen toggles whether a vendor is accepting orders.
func (c *Catalog) SetVendorOpen(vendorID string, open bool) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := c.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	vendor.Open = open
	if err := c.db.Save(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}
