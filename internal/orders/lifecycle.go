package orders

import (
	"time"

	"mensa/internal/models"

	"github.com/jinzhu/gorm"
)

// DefaultGracePeriod is how long past the estimated ready time an
// unclaimed order stays valid before it counts as expired.
const DefaultGracePeriod = 30 * time.Minute

// systemActor labels automatic status writes in the audit trail.
const systemActor = "system"

// Actor identifies who is requesting a lifecycle operation.
// Administrative actors bypass the ownership check.
type Actor struct {
	ID    string
	Admin bool
}

// PrepEstimator computes the preparation duration for an order's items.
// The estimation source is deliberately pluggable.
type PrepEstimator func(items []models.OrderItem) time.Duration

// DefaultPrepEstimator uses the longest per-item prep time captured at
// checkout, with a ten minute floor. Lines prep in parallel on a
// cafeteria counter, so quantities do not stack the estimate.
func DefaultPrepEstimator(items []models.OrderItem) time.Duration {
	longest := 10
	for _, item := range items {
		if item.PrepMinutes > longest {
			longest = item.PrepMinutes
		}
	}
	return time.Duration(longest) * time.Minute
}

// allowedTransitions is the order state machine. A status missing from
// the map, or mapped to an empty set, is terminal.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPlaced:   {models.OrderStatusReady, models.OrderStatusCancelled, models.OrderStatusExpired},
	models.OrderStatusReady:    {models.OrderStatusPickedUp, models.OrderStatusExpired},
	models.OrderStatusPickedUp: {models.OrderStatusClosed},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Manager owns the order status state machine and the derived read-only
// facts (estimated ready time, time remaining, effective status).
type Manager struct {
	db        *gorm.DB
	grace     time.Duration
	estimator PrepEstimator
	now       func() time.Time
	pageSize  int
}

// NewManager creates a lifecycle manager. grace <= 0 selects the default
// grace period, a nil estimator selects DefaultPrepEstimator, and
// pageSize <= 0 selects the default listing page size.
func NewManager(db *gorm.DB, grace time.Duration, estimator PrepEstimator, pageSize int) *Manager {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if estimator == nil {
		estimator = DefaultPrepEstimator
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Manager{
		db:        db,
		grace:     grace,
		estimator: estimator,
		now:       time.Now,
		pageSize:  pageSize,
	}
}

// EstimatedReadyAt returns when the order should be ready for pickup.
func (m *Manager) EstimatedReadyAt(o *models.Order) time.Time {
	return o.PlacedAt.Add(m.estimator(o.Items))
}

// TimeRemaining returns how long until the order expires, zero or less
// once the grace period has run out.
func (m *Manager) TimeRemaining(o *models.Order) time.Duration {
	return m.EstimatedReadyAt(o).Add(m.grace).Sub(m.now())
}

// EffectiveStatus is the single source of truth for the status an order
// should be treated as right now. While an order awaits pickup its
// persisted status may lag expiry; every read that filters or displays
// status must go through here, never the raw stored value.
func (m *Manager) EffectiveStatus(o *models.Order) models.OrderStatus {
	switch o.Status {
	case models.OrderStatusPlaced, models.OrderStatusReady:
		if m.now().After(m.EstimatedReadyAt(o).Add(m.grace)) {
			return models.OrderStatusExpired
		}
	}
	return o.Status
}

// Get loads an order for the actor. Orders belonging to someone else are
// reported as not found unless the actor is administrative.
func (m *Manager) Get(orderID string, actor Actor) (*models.Order, error) {
	var order models.Order
	err := m.db.Preload("Items").Where("order_id = ?", orderID).First(&order).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.Admin && order.OwnerID != actor.ID {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// History returns the order's audit trail, oldest first.
func (m *Manager) History(orderID string, actor Actor) ([]models.OrderStatusChange, error) {
	if _, err := m.Get(orderID, actor); err != nil {
		return nil, err
	}
	var changes []models.OrderStatusChange
	if err := m.db.Where("order_uid = ?", orderID).Order("changed_at").Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// Transition advances the order to the requested status. Expiry that has
// been computed but not yet persisted is written back first, so a lapsed
// order cannot be advanced. Concurrent transitions on the same order are
// resolved by a guarded update; the loser gets ErrIllegalTransition.
func (m *Manager) Transition(orderID string, to models.OrderStatus, actor Actor) (*models.Order, error) {
	order, err := m.Get(orderID, actor)
	if err != nil {
		return nil, err
	}
	if err := m.reconcileExpiry(order); err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to) {
		return nil, ErrIllegalTransition
	}
	if err := m.apply(order, to, actor.ID, ""); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel is client-initiated cancellation. Only a placed order may be
// cancelled; once it is ready for pickup the window has closed.
func (m *Manager) Cancel(orderID string, actor Actor, reason string) (*models.Order, error) {
	order, err := m.Get(orderID, actor)
	if err != nil {
		return nil, err
	}
	if err := m.reconcileExpiry(order); err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPlaced {
		return nil, ErrNotCancellable
	}
	if err := m.apply(order, models.OrderStatusCancelled, actor.ID, reason); err != nil {
		return nil, err
	}
	return order, nil
}

// reconcileExpiry persists a lagging expired status before any write
// proceeds. If another writer got there first the order is re-read so
// the caller validates against the true current status.
func (m *Manager) reconcileExpiry(order *models.Order) error {
	if m.EffectiveStatus(order) == order.Status {
		return nil
	}

	tx := m.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	res := tx.Model(&models.Order{}).
		Where("order_id = ? AND status = ?", order.OrderID, order.Status).
		Update("status", models.OrderStatusExpired)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		var current models.Order
		if err := m.db.Where("order_id = ?", order.OrderID).First(&current).Error; err != nil {
			return err
		}
		order.Status = current.Status
		order.CompletedAt = current.CompletedAt
		return nil
	}

	history := models.OrderStatusChange{
		OrderUID:  order.OrderID,
		From:      order.Status,
		To:        models.OrderStatusExpired,
		Actor:     systemActor,
		Reason:    "pickup window elapsed",
		ChangedAt: m.now(),
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	order.Status = models.OrderStatusExpired
	return nil
}

// apply performs the guarded status update plus audit write in one
// transaction and mirrors the result onto the in-memory order.
func (m *Manager) apply(order *models.Order, to models.OrderStatus, actor, reason string) error {
	now := m.now()
	updates := map[string]interface{}{"status": to}
	var completed *time.Time
	if to == models.OrderStatusPickedUp || to == models.OrderStatusClosed {
		completed = &now
		updates["completed_at"] = now
	}

	tx := m.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	res := tx.Model(&models.Order{}).
		Where("order_id = ? AND status = ?", order.OrderID, order.Status).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent transition won the race.
		tx.Rollback()
		return ErrIllegalTransition
	}

	history := models.OrderStatusChange{
		OrderUID:  order.OrderID,
		From:      order.Status,
		To:        to,
		Actor:     actor,
		Reason:    reason,
		ChangedAt: now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	order.Status = to
	if completed != nil {
		order.CompletedAt = completed
	}
	return nil
}
