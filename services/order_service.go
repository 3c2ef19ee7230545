package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/metrics"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives an event after every committed order mutation.
type Notifier interface {
	Publish(ev kds.Event)
}

// LineItemInput is one requested line. Name and price are taken from the
// catalog, never from the caller.
type LineItemInput struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

// OrderService owns every read and write of orders and their line items.
type OrderService struct {
	DB        *gorm.DB
	Notifier  Notifier
	MaxTables int
	// Outbox writes an order_events row inside each mutation's transaction
	// for the broker relay.
	Outbox bool

	locks tableLocks
	now   func() time.Time
}

func NewOrderService(db *gorm.DB, notifier Notifier, maxTables int) *OrderService {
	return &OrderService{
		DB:        db,
		Notifier:  notifier,
		MaxTables: maxTables,
		now:       time.Now,
	}
}

// FetchAll returns every order with its items, newest first.
func (s *OrderService) FetchAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return loadOrder(s.DB.WithContext(ctx), id)
}

// ActiveOrder returns the table's open ("during") order.
func (s *OrderService) ActiveOrder(ctx context.Context, table int) (*models.Order, error) {
	if err := s.validateTable(table); err != nil {
		return nil, err
	}
	return findActiveOrder(s.DB.WithContext(ctx), table)
}

// CreateOrder opens a new tab for the table. Order and line items are written
// in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, table int, items []LineItemInput, method string) (order *models.Order, err error) {
	defer func() { metrics.ObserveOperation("create", err) }()

	if err := s.validateTable(table); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	unlock := s.locks.lock(table)
	defer unlock()

	now := s.now()
	order = &models.Order{
		TableNumber: table,
		Method:      method,
		Status:      models.StatusPending,
		StatusTable: models.TableDuring,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Order{}).
			Where("table_number = ? AND status_table = ?", table, models.TableDuring).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrTableSessionOpen
		}

		lines, err := resolveLines(tx, items, now)
		if err != nil {
			return err
		}
		order.Total = models.SumItems(lines)

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}
		order.Items = lines

		return s.recordEvent(tx, kds.EventOrderCreated, order)
	})
	if err != nil {
		utils.ErrorLogger.Printf("create order for table %d failed: %v", table, err)
		return nil, err
	}

	utils.InfoLogger.Printf("Order #%d created for table %d, total %s", order.ID, table, order.Total)
	s.notify(kds.EventOrderCreated, order)
	return order, nil
}

// StatusGuard picks the next preparation status from the order as stored.
type StatusGuard func(order models.Order) (models.OrderStatus, error)

// TableGuard picks the next table status from the order as stored.
type TableGuard func(order models.Order) (models.TableStatus, error)

// UpdateOrderStatus writes the preparation status. Any known status is
// accepted; which transitions to offer is up to the caller.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (order *models.Order, err error) {
	defer func() { metrics.ObserveOperation("update_status", err) }()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	order, _, err = s.applyOrderStatus(ctx, id, func(models.Order) (models.OrderStatus, error) {
		return status, nil
	}, false)
	return order, err
}

// AdvanceOrderStatus asks guard for the next status using the row read inside
// the write transaction, so a guard never decides on a stale copy. changed is
// false when guard keeps the current status.
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, id uint, guard StatusGuard) (order *models.Order, changed bool, err error) {
	defer func() { metrics.ObserveOperation("advance_status", err) }()
	return s.applyOrderStatus(ctx, id, guard, true)
}

func (s *OrderService) applyOrderStatus(ctx context.Context, id uint, guard StatusGuard, skipUnchanged bool) (order *models.Order, changed bool, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, id)
		if err != nil {
			return err
		}
		next, err := guard(*order)
		if err != nil {
			return err
		}
		if !next.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
		}
		if skipUnchanged && next == order.Status {
			return nil
		}

		prev := order.Status
		order.Status = next
		order.UpdatedAt = s.now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, prev).
			Updates(map[string]interface{}{
				"status":     order.Status,
				"updated_at": order.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOrderChanged
		}
		changed = true
		return s.recordEvent(tx, kds.EventOrderStatus, order)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		metrics.StatusTransitions.WithLabelValues(string(order.Status)).Inc()
		s.notify(kds.EventOrderStatus, order)
	}
	return order, changed, nil
}

// UpdateTableStatus opens or closes the order's table session. Reopening is
// refused while the table has another open order.
func (s *OrderService) UpdateTableStatus(ctx context.Context, id uint, status models.TableStatus) (order *models.Order, err error) {
	defer func() { metrics.ObserveOperation("update_table_status", err) }()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	order, _, err = s.applyTableStatus(ctx, id, func(models.Order) (models.TableStatus, error) {
		return status, nil
	}, false)
	return order, err
}

// AdvanceTableStatus is the table counterpart of AdvanceOrderStatus.
func (s *OrderService) AdvanceTableStatus(ctx context.Context, id uint, guard TableGuard) (order *models.Order, changed bool, err error) {
	defer func() { metrics.ObserveOperation("advance_table_status", err) }()
	return s.applyTableStatus(ctx, id, guard, true)
}

func (s *OrderService) applyTableStatus(ctx context.Context, id uint, guard TableGuard, skipUnchanged bool) (order *models.Order, changed bool, err error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	unlock := s.locks.lock(current.TableNumber)
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, id)
		if err != nil {
			return err
		}
		next, err := guard(*order)
		if err != nil {
			return err
		}
		if !next.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
		}
		if skipUnchanged && next == order.StatusTable {
			return nil
		}
		if next == models.TableDuring && order.StatusTable != models.TableDuring {
			var open int64
			if err := tx.Model(&models.Order{}).
				Where("table_number = ? AND status_table = ? AND id <> ?", order.TableNumber, models.TableDuring, order.ID).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return ErrTableSessionOpen
			}
		}

		prev := order.StatusTable
		order.StatusTable = next
		order.UpdatedAt = s.now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status_table = ?", id, prev).
			Updates(map[string]interface{}{
				"status_table": order.StatusTable,
				"updated_at":   order.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update table status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOrderChanged
		}
		changed = true
		return s.recordEvent(tx, kds.EventTableStatus, order)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		utils.InfoLogger.Printf("Order #%d table %d is now %s", order.ID, order.TableNumber, order.StatusTable)
		s.notify(kds.EventTableStatus, order)
	}
	return order, changed, nil
}

// ModifyOrder appends lines to the table's open order, recomputes the total
// over all of its lines and sends it back to pending. Lines for the same menu
// item are not merged.
func (s *OrderService) ModifyOrder(ctx context.Context, table int, items []LineItemInput) (order *models.Order, err error) {
	defer func() { metrics.ObserveOperation("modify", err) }()

	if err := s.validateTable(table); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(table)
	defer unlock()

	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findActiveOrder(tx, table)
		if err != nil {
			return err
		}

		lines, err := resolveLines(tx, items, now)
		if err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		order.Items = append(order.Items, lines...)
		order.Total = order.ComputeTotal()
		order.Status = models.StatusPending
		order.UpdatedAt = now
		if err := tx.Model(order).Updates(map[string]interface{}{
			"total":      order.Total,
			"status":     order.Status,
			"updated_at": order.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}
		return s.recordEvent(tx, kds.EventOrderModified, order)
	})
	if err != nil {
		utils.ErrorLogger.Printf("modify order for table %d failed: %v", table, err)
		return nil, err
	}

	utils.InfoLogger.Printf("Order #%d for table %d modified, total %s", order.ID, table, order.Total)
	s.notify(kds.EventOrderModified, order)
	return order, nil
}

// MarkServed flags every line of the order as delivered to the table.
func (s *OrderService) MarkServed(ctx context.Context, id uint) (order *models.Order, err error) {
	defer func() { metrics.ObserveOperation("mark_served", err) }()

	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadOrder(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", id).
			Updates(map[string]interface{}{"served": true, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to mark items served: %w", err)
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Update("updated_at", now).Error; err != nil {
			return err
		}

		var err error
		order, err = loadOrder(tx, id)
		if err != nil {
			return err
		}
		return s.recordEvent(tx, kds.EventOrderServed, order)
	})
	if err != nil {
		return nil, err
	}

	s.notify(kds.EventOrderServed, order)
	return order, nil
}

func (s *OrderService) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// ListenToUpdates returns the last-update timestamp of every order, newest
// first.
func (s *OrderService) ListenToUpdates(ctx context.Context) ([]time.Time, error) {
	var stamps []time.Time
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Order("updated_at DESC").
		Pluck("updated_at", &stamps).Error; err != nil {
		return nil, fmt.Errorf("failed to list order updates: %w", err)
	}
	return stamps, nil
}

func (s *OrderService) validateTable(table int) error {
	if table < 1 || (s.MaxTables > 0 && table > s.MaxTables) {
		return fmt.Errorf("%w: %d", ErrInvalidTable, table)
	}
	return nil
}

func (s *OrderService) recordEvent(tx *gorm.DB, eventType string, order *models.Order) error {
	if !s.Outbox {
		return nil
	}
	ev := models.OrderEvent{
		OrderID:     order.ID,
		TableNumber: order.TableNumber,
		Type:        eventType,
		Status:      order.Status,
		StatusTable: order.StatusTable,
		OccurredAt:  order.UpdatedAt,
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("failed to record order event: %w", err)
	}
	return nil
}

func (s *OrderService) notify(eventType string, order *models.Order) {
	if s.Notifier == nil {
		return
	}
	snapshot := *order
	snapshot.Items = append([]models.OrderItem(nil), order.Items...)
	s.Notifier.Publish(kds.Event{
		Type:        eventType,
		OrderID:     order.ID,
		TableNumber: order.TableNumber,
		Order:       &snapshot,
		At:          order.UpdatedAt,
	})
}

func loadOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	return &order, nil
}

func findActiveOrder(db *gorm.DB, table int) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("table_number = ? AND status_table = ?", table, models.TableDuring).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveOrder
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open order for table %d: %w", table, err)
	}
	return &order, nil
}

// resolveLines drops lines without a menu item or with a non-positive
// quantity and snapshots name and price from the catalog for the rest.
func resolveLines(tx *gorm.DB, items []LineItemInput, now time.Time) ([]models.OrderItem, error) {
	valid := make([]LineItemInput, 0, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if it.MenuItemID == 0 || it.Quantity <= 0 {
			continue
		}
		valid = append(valid, it)
		ids = append(ids, it.MenuItemID)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidItems
	}

	var menu []models.MenuItem
	if err := tx.Where("id IN ?", ids).Find(&menu).Error; err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	byID := make(map[uint]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	lines := make([]models.OrderItem, 0, len(valid))
	for _, it := range valid {
		m, ok := byID[it.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownMenuItem, it.MenuItemID)
		}
		lines = append(lines, models.OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Price:      m.Price,
			Quantity:   it.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return lines, nil
}

// tableLocks serializes writes that touch the same table within this process.
type tableLocks struct {
	mu sync.Mutex
	m  map[int]*sync.Mutex
}

func (l *tableLocks) lock(table int) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[int]*sync.Mutex)
	}
	m, ok := l.m[table]
	if !ok {
		m = &sync.Mutex{}
		l.m[table] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
