package orders

import (
	"path/filepath"
	"sync"
	"testing"

	"mensa/internal/cart"
	"mensa/internal/catalog"
	"mensa/internal/database"
	"mensa/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *gorm.DB
	carts   *cart.Store
	factory *Factory
	manager *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open("sqlite3", filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	vendors := []models.Vendor{
		{VendorID: "vendor-a", Name: "Vendor A", Open: true},
		{VendorID: "vendor-b", Name: "Vendor B", Open: true},
	}
	for _, vendor := range vendors {
		require.NoError(t, db.Create(&vendor).Error)
	}
	items := []models.MenuItem{
		{ItemID: "a-burger", VendorID: "vendor-a", Name: "Burger", Price: 4.50, Available: true, PrepMinutes: 20},
		{ItemID: "a-drink", VendorID: "vendor-a", Name: "Drink", Price: 1.50, Available: true, PrepMinutes: 5},
		{ItemID: "b-salad", VendorID: "vendor-b", Name: "Salad", Price: 3.75, Available: true, PrepMinutes: 10},
	}
	for _, item := range items {
		require.NoError(t, db.Create(&item).Error)
	}

	carts := cart.NewStore(db, catalog.New(db), 0)
	return &testEnv{
		db:      db,
		carts:   carts,
		factory: NewFactory(carts, 0),
		manager: NewManager(db, 0, nil, 0),
	}
}

func (e *testEnv) fillCart(t *testing.T, ownerID string) {
	t.Helper()
	_, err := e.carts.AddItem(ownerID, "a-burger", 2, "")
	require.NoError(t, err)
	_, err = e.carts.AddItem(ownerID, "a-drink", 1, "")
	require.NoError(t, err)
}

func TestCreateOrderNormal(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, "owner-1")

	order, err := env.factory.CreateOrder("owner-1", models.PaymentMethodCard, models.OrderKindNormal, "extra napkins")
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, "vendor-a", order.VendorID)
	assert.Equal(t, models.OrderStatusPlaced, order.Status)
	assert.InDelta(t, 10.50, order.Subtotal, 0.001)
	assert.Zero(t, order.Surcharge)
	assert.InDelta(t, 10.50, order.Total, 0.001)
	assert.Len(t, order.Items, 2)
	assert.False(t, order.PlacedAt.IsZero())
	assert.Nil(t, order.CompletedAt)

	// The source cart is empty immediately after.
	remaining, err := env.carts.Get("owner-1")
	require.NoError(t, err)
	assert.True(t, remaining.IsEmpty())
	assert.Empty(t, remaining.VendorID)
}

func TestCreateOrderExpeditedSurcharge(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, "owner-1")

	order, err := env.factory.CreateOrder("owner-1", models.PaymentMethodCash, models.OrderKindExpedited, "")
	require.NoError(t, err)

	assert.InDelta(t, 10.50, order.Subtotal, 0.001)
	assert.InDelta(t, 1.00, order.Surcharge, 0.001)
	assert.InDelta(t, 11.50, order.Total, 0.001)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.factory.CreateOrder("owner-1", models.PaymentMethodCard, models.OrderKindNormal, "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	// Nothing was persisted.
	var count int64
	env.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, "owner-1")

	_, err := env.factory.CreateOrder("owner-1", "cheque", models.OrderKindNormal, "")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	// The cart is untouched.
	remaining, err := env.carts.Get("owner-1")
	require.NoError(t, err)
	assert.Len(t, remaining.Items, 2)
}

func TestCreateOrderFreezesCartPrices(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, "owner-1")

	// A catalog price change mid-checkout must not drift the total.
	require.NoError(t, env.db.Model(&models.MenuItem{}).
		Where("item_id = ?", "a-burger").
		Update("price", 9.99).Error)

	order, err := env.factory.CreateOrder("owner-1", models.PaymentMethodCard, models.OrderKindNormal, "")
	require.NoError(t, err)
	assert.InDelta(t, 10.50, order.Total, 0.001)
}

func TestConcurrentCheckoutExactlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, "owner-1")

	results := make([]error, 2)
	orders := make([]*models.Order, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], results[i] = env.factory.CreateOrder("owner-1", models.PaymentMethodCard, models.OrderKindNormal, "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		if err == nil {
			successes++
			assert.Len(t, orders[i].Items, 2)
			assert.InDelta(t, 10.50, orders[i].Total, 0.001)
		} else {
			assert.ErrorIs(t, err, ErrEmptyCart)
		}
	}
	assert.Equal(t, 1, successes)

	var count int64
	env.db.Model(&models.Order{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
