// Package orders converts carts into immutable orders and drives each
// order's lifecycle from placement to pickup, cancellation or expiry.
package orders

import (
	"time"

	"mensa/internal/cart"
	"mensa/internal/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// DefaultExpeditedSurcharge is the fixed charge added to expedited
// orders.
const DefaultExpeditedSurcharge = 1.00

// Factory converts a non-empty cart into an immutable order, clearing
// the cart in the same transaction.
type Factory struct {
	carts     *cart.Store
	surcharge float64
	now       func() time.Time
}

// NewFactory creates an order factory over the given cart store.
// surcharge <= 0 selects the default expedited surcharge.
func NewFactory(carts *cart.Store, surcharge float64) *Factory {
	if surcharge <= 0 {
		surcharge = DefaultExpeditedSurcharge
	}
	return &Factory{
		carts:     carts,
		surcharge: surcharge,
		now:       time.Now,
	}
}

// CreateOrder snapshots the owner's cart into a new order. Prices are
// taken from the cart lines, not re-read from the catalog, so a price
// change mid-checkout cannot drift the total. On success the cart is
// empty and the order is placed; on any failure neither side changes.
func (f *Factory) CreateOrder(ownerID, paymentMethod string, kind models.OrderKind, notes string) (*models.Order, error) {
	if !models.ValidPaymentMethod(paymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	switch kind {
	case models.OrderKindNormal, models.OrderKindExpedited:
	default:
		return nil, ErrInvalidOrderKind
	}

	var order *models.Order
	err := f.carts.WithOwnerTx(ownerID, func(tx *gorm.DB) error {
		current, err := cart.LoadForOwner(tx, ownerID)
		if err != nil {
			return err
		}
		if current == nil || current.IsEmpty() {
			return ErrEmptyCart
		}

		placedAt := f.now()
		built := models.Order{
			OrderID:       uuid.New().String(),
			OwnerID:       ownerID,
			VendorID:      current.VendorID,
			PaymentMethod: paymentMethod,
			Kind:          kind,
			Notes:         notes,
			Status:        models.OrderStatusPlaced,
			PlacedAt:      placedAt,
		}
		for _, line := range current.Items {
			built.Subtotal += line.UnitPrice * float64(line.Quantity)
		}
		built.Total = built.Subtotal
		if kind == models.OrderKindExpedited {
			built.Surcharge = f.surcharge
			built.Total += f.surcharge
		}

		if err := tx.Create(&built).Error; err != nil {
			return err
		}
		for _, line := range current.Items {
			item := models.OrderItem{
				OrderUID:    built.OrderID,
				ItemID:      line.ItemID,
				Name:        line.Name,
				UnitPrice:   line.UnitPrice,
				Quantity:    line.Quantity,
				Subtotal:    line.UnitPrice * float64(line.Quantity),
				PrepMinutes: line.PrepMinutes,
				LineNote:    line.LineNote,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			built.Items = append(built.Items, item)
		}

		history := models.OrderStatusChange{
			OrderUID:  built.OrderID,
			From:      "",
			To:        models.OrderStatusPlaced,
			Actor:     ownerID,
			ChangedAt: placedAt,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if _, err := cart.ClearInTx(tx, current); err != nil {
			return err
		}

		order = &built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
