package orders

import (
	"time"

	"mensa/internal/models"
)

// DefaultPageSize is the listing page size when none is configured.
const DefaultPageSize = 20

// Filter narrows an order listing. A zero field means no constraint.
// Status is matched against the effective status, never the raw stored
// one, so lapsed orders bucket as expired even before the write-back.
type Filter struct {
	Status models.OrderStatus
	From   time.Time
	To     time.Time
}

// OrderView is an order decorated with its derived read-only facts.
type OrderView struct {
	models.Order
	EffectiveStatus  models.OrderStatus `json:"effective_status"`
	EstimatedReadyAt time.Time          `json:"estimated_ready_at"`
}

// OrderPage is one page of a filtered listing, most recent first.
type OrderPage struct {
	Orders   []OrderView `json:"orders"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int         `json:"total"`
}

// UserStats summarizes one patron's order history. Total spent counts
// only effectively-closed orders; cancelled and expired orders never
// contribute.
type UserStats struct {
	TotalOrders     int                        `json:"total_orders"`
	CompletedOrders int                        `json:"completed_orders"`
	TotalSpent      float64                    `json:"total_spent"`
	FavoriteVendor  string                     `json:"favorite_vendor,omitempty"`
	CountsByStatus  map[models.OrderStatus]int `json:"counts_by_status"`
	LastOrder       *OrderView                 `json:"last_order,omitempty"`
}

// View decorates an order with its derived facts.
func (m *Manager) View(o *models.Order) OrderView {
	return OrderView{
		Order:            *o,
		EffectiveStatus:  m.EffectiveStatus(o),
		EstimatedReadyAt: m.EstimatedReadyAt(o),
	}
}

// List returns one page of the owner's orders matching the filter,
// sorted by placement time descending. Pages are 1-based.
func (m *Manager) List(ownerID string, filter Filter, page int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}

	views, err := m.ownerViews(ownerID)
	if err != nil {
		return nil, err
	}

	matched := make([]OrderView, 0, len(views))
	for _, view := range views {
		if filter.Status != "" && view.EffectiveStatus != filter.Status {
			continue
		}
		if !filter.From.IsZero() && view.PlacedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && view.PlacedAt.After(filter.To) {
			continue
		}
		matched = append(matched, view)
	}

	start := (page - 1) * m.pageSize
	end := start + m.pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &OrderPage{
		Orders:   matched[start:end],
		Page:     page,
		PageSize: m.pageSize,
		Total:    len(matched),
	}, nil
}

// Stats aggregates the owner's full order history.
func (m *Manager) Stats(ownerID string) (*UserStats, error) {
	views, err := m.ownerViews(ownerID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		CountsByStatus: make(map[models.OrderStatus]int),
	}
	vendorCounts := make(map[string]int)
	for i := range views {
		view := views[i]
		stats.TotalOrders++
		stats.CountsByStatus[view.EffectiveStatus]++
		vendorCounts[view.VendorID]++
		if view.EffectiveStatus == models.OrderStatusClosed {
			stats.CompletedOrders++
			stats.TotalSpent += view.Total
		}
		if stats.LastOrder == nil {
			stats.LastOrder = &views[i]
		}
	}

	// Ties break toward the lexically lowest vendor id for determinism.
	best := 0
	for vendorID, count := range vendorCounts {
		if count > best || (count == best && (stats.FavoriteVendor == "" || vendorID < stats.FavoriteVendor)) {
			best = count
			stats.FavoriteVendor = vendorID
		}
	}

	return stats, nil
}

// ownerViews loads all of the owner's orders, newest first, decorated
// with derived facts.
func (m *Manager) ownerViews(ownerID string) ([]OrderView, error) {
	var all []models.Order
	err := m.db.Preload("Items").
		Where("owner_id = ?", ownerID).
		Order("placed_at desc").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(all))
	for i := range all {
		views = append(views, m.View(&all[i]))
	}
	return views, nil
}
