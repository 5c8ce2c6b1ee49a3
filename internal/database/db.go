package database

import (
	"fmt"
	"time"

	"mensa/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Open initializes the database connection for the configured driver.
// Supported drivers are "sqlite3" and "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.DB().SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates and updates all tables required for cart and order
// management plus the vendor catalog.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Vendor{},
		&models.MenuItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusChange{},
	).Error
}

// Seed ensures a default vendor catalog exists so a fresh install is
// usable immediately.
func Seed(db *gorm.DB) error {
	var vendorCount int64
	db.Model(&models.Vendor{}).Count(&vendorCount)
	if vendorCount > 0 {
		return nil
	}

	vendors := []models.Vendor{
		{VendorID: "grill-house", Name: "Grill House", Open: true},
		{VendorID: "green-bowl", Name: "Green Bowl", Open: true},
		{VendorID: "bean-scene", Name: "Bean Scene Coffee", Open: true},
	}
	for _, vendor := range vendors {
		if err := db.Create(&vendor).Error; err != nil {
			return fmt.Errorf("failed to seed vendor %s: %w", vendor.VendorID, err)
		}
	}

	items := []models.MenuItem{
		{ItemID: "gh-burger", VendorID: "grill-house", Name: "Campus Burger", Category: string(models.MenuCategoryMain), Price: 6.50, Available: true, PrepMinutes: 15},
		{ItemID: "gh-fries", VendorID: "grill-house", Name: "Fries", Category: string(models.MenuCategorySide), Price: 2.50, Available: true, PrepMinutes: 8},
		{ItemID: "gh-wrap", VendorID: "grill-house", Name: "Chicken Wrap", Category: string(models.MenuCategoryMain), Price: 5.75, Available: true, PrepMinutes: 12},
		{ItemID: "gb-salad", VendorID: "green-bowl", Name: "Garden Salad", Category: string(models.MenuCategoryMain), Price: 4.50, Available: true, PrepMinutes: 10},
		{ItemID: "gb-soup", VendorID: "green-bowl", Name: "Soup of the Day", Category: string(models.MenuCategorySide), Price: 3.25, Available: true, PrepMinutes: 5},
		{ItemID: "bs-latte", VendorID: "bean-scene", Name: "Latte", Category: string(models.MenuCategoryBeverage), Price: 3.00, Available: true, PrepMinutes: 4},
		{ItemID: "bs-muffin", VendorID: "bean-scene", Name: "Blueberry Muffin", Category: string(models.MenuCategorySnack), Price: 2.25, Available: true, PrepMinutes: 2},
	}
	for _, item := range items {
		if err := models.ValidateMenuItem(&item); err != nil {
			return err
		}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to seed menu item %s: %w", item.ItemID, err)
		}
	}

	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
