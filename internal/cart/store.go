// Package cart owns the mutable per-patron line-item collection. A cart
// holds items from one vendor at a time; all mutations for one owner are
// serialized so checkout always sees a consistent snapshot.
package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"mensa/internal/catalog"
	"mensa/internal/models"

	"github.com/jinzhu/gorm"
)

// DefaultMaxLineQuantity caps a single line's quantity as an abuse guard.
const DefaultMaxLineQuantity = 50

var (
	// ErrItemUnavailable is returned when the item does not exist, is
	// flagged unavailable, or its vendor is closed.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrVendorConflict is returned when the item belongs to a different
	// vendor than the cart's current contents.
	ErrVendorConflict = errors.New("cart holds items from another vendor")

	// ErrInvalidQuantity is returned for non-positive quantities or
	// quantities over the per-line cap.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrLineNotFound is returned when the referenced line is not in the
	// cart.
	ErrLineNotFound = errors.New("item not in cart")
)

// Store manages per-owner carts.
type Store struct {
	db              *gorm.DB
	catalog         catalog.Lookup
	maxLineQuantity int

	locks sync.Map // ownerID -> *sync.Mutex
}

// NewStore creates a cart store. maxLineQuantity <= 0 selects the
// default cap.
func NewStore(db *gorm.DB, lookup catalog.Lookup, maxLineQuantity int) *Store {
	if maxLineQuantity <= 0 {
		maxLineQuantity = DefaultMaxLineQuantity
	}
	return &Store{
		db:              db,
		catalog:         lookup,
		maxLineQuantity: maxLineQuantity,
	}
}

func (s *Store) ownerLock(ownerID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(ownerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// WithOwnerTx runs fn while holding the owner's lock inside a single
// database transaction. The order factory uses this to make its
// snapshot-and-clear indivisible from concurrent cart mutations.
func (s *Store) WithOwnerTx(ownerID string, fn func(tx *gorm.DB) error) error {
	mu := s.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// AddItem resolves the item through the catalog and appends it to the
// owner's cart, merging quantities when the line already exists. The
// cart is created lazily on first add.
func (s *Store) AddItem(ownerID, itemID string, quantity int, lineNote string) (*models.Cart, error) {
	if quantity <= 0 || quantity > s.maxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	info, err := s.catalog.GetItem(itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return nil, ErrItemUnavailable
		}
		return nil, err
	}
	if !info.Available {
		return nil, ErrItemUnavailable
	}
	open, err := s.catalog.IsVendorOpen(info.VendorID)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrItemUnavailable
	}

	var result *models.Cart
	err = s.WithOwnerTx(ownerID, func(tx *gorm.DB) error {
		cart, err := loadOrCreateCart(tx, ownerID)
		if err != nil {
			return err
		}

		if cart.VendorID != "" && cart.VendorID != info.VendorID {
			return ErrVendorConflict
		}

		merged := false
		for i := range cart.Items {
			if cart.Items[i].ItemID == itemID {
				next := cart.Items[i].Quantity + quantity
				if next > s.maxLineQuantity {
					return ErrInvalidQuantity
				}
				cart.Items[i].Quantity = next
				if lineNote != "" {
					cart.Items[i].LineNote = lineNote
				}
				if err := tx.Save(&cart.Items[i]).Error; err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			line := models.CartItem{
				CartID:      cart.ID,
				ItemID:      info.ItemID,
				Name:        info.Name,
				UnitPrice:   info.Price,
				Quantity:    quantity,
				PrepMinutes: info.PrepMinutes,
				LineNote:    lineNote,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			cart.Items = append(cart.Items, line)
		}

		cart.VendorID = info.VendorID
		cart.LastModifiedAt = time.Now()
		if err := tx.Save(cart).Error; err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateQuantity replaces the quantity of an existing line. Zero or
// negative quantities are rejected; callers should remove the line
// instead.
func (s *Store) UpdateQuantity(ownerID, itemID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 || quantity > s.maxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	var result *models.Cart
	err := s.WithOwnerTx(ownerID, func(tx *gorm.DB) error {
		cart, err := loadCart(tx, ownerID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrLineNotFound
		}

		for i := range cart.Items {
			if cart.Items[i].ItemID == itemID {
				cart.Items[i].Quantity = quantity
				if err := tx.Save(&cart.Items[i]).Error; err != nil {
					return err
				}
				cart.LastModifiedAt = time.Now()
				if err := tx.Save(cart).Error; err != nil {
					return err
				}
				result = cart
				return nil
			}
		}
		return ErrLineNotFound
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes a line from the cart. When the last line goes, the
// cart's vendor binding is reset so the next add may come from any
// vendor.
func (s *Store) RemoveItem(ownerID, itemID string) (*models.Cart, error) {
	var result *models.Cart
	err := s.WithOwnerTx(ownerID, func(tx *gorm.DB) error {
		cart, err := loadCart(tx, ownerID)
		if err != nil {
			return err
		}
		if cart == nil {
			result = models.EmptyCart(ownerID)
			return nil
		}

		kept := cart.Items[:0]
		removed := false
		for _, item := range cart.Items {
			if item.ItemID == itemID {
				if err := tx.Delete(&models.CartItem{}, "id = ?", item.ID).Error; err != nil {
					return err
				}
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		cart.Items = kept
		if !removed {
			result = cart
			return nil
		}

		if len(cart.Items) == 0 {
			cart.VendorID = ""
		}
		cart.LastModifiedAt = time.Now()
		if err := tx.Save(cart).Error; err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear empties the cart and resets its vendor binding.
func (s *Store) Clear(ownerID string) (*models.Cart, error) {
	var result *models.Cart
	err := s.WithOwnerTx(ownerID, func(tx *gorm.DB) error {
		cart, err := loadCart(tx, ownerID)
		if err != nil {
			return err
		}
		if cart == nil {
			result = models.EmptyCart(ownerID)
			return nil
		}
		cleared, err := ClearInTx(tx, cart)
		if err != nil {
			return err
		}
		result = cleared
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearInTx empties an already-loaded cart inside the caller's
// transaction. The order factory calls this after snapshotting the cart
// so the clear commits or rolls back with the order insert.
func ClearInTx(tx *gorm.DB, cart *models.Cart) (*models.Cart, error) {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	cart.VendorID = ""
	cart.LastModifiedAt = time.Now()
	if err := tx.Save(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// Get returns the owner's current cart. It never fails with not-found;
// an owner without a stored cart gets the empty-cart value.
func (s *Store) Get(ownerID string) (*models.Cart, error) {
	cart, err := loadCart(s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return models.EmptyCart(ownerID), nil
	}
	return cart, nil
}

// Total returns the current cart total for the owner.
func (s *Store) Total(ownerID string) (float64, error) {
	cart, err := s.Get(ownerID)
	if err != nil {
		return 0, err
	}
	return cart.Total(), nil
}

// LoadForOwner loads the owner's cart with items using the given handle.
// Returns nil without error when no cart exists.
func LoadForOwner(db *gorm.DB, ownerID string) (*models.Cart, error) {
	return loadCart(db, ownerID)
}

func loadCart(db *gorm.DB, ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items").Where("owner_id = ?", ownerID).First(&cart).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

func loadOrCreateCart(tx *gorm.DB, ownerID string) (*models.Cart, error) {
	cart, err := loadCart(tx, ownerID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	fresh := models.Cart{
		OwnerID:        ownerID,
		Items:          []models.CartItem{},
		LastModifiedAt: time.Now(),
	}
	if err := tx.Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &fresh, nil
}
