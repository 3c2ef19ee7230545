package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// OrderSource is the read side of the order store the feed needs.
type OrderSource interface {
	FetchAll(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
}

// OrderFeed keeps an in-memory copy of all orders, newest first, and patches
// single orders as change events arrive. Role views read from it.
type OrderFeed struct {
	source OrderSource
	hub    *kds.Hub
	// ResyncInterval is how often Run retries a full load while the
	// collection is known to be out of date.
	ResyncInterval time.Duration

	mu      sync.RWMutex
	orders  []models.Order
	loading bool
}

func NewOrderFeed(source OrderSource, hub *kds.Hub) *OrderFeed {
	return &OrderFeed{source: source, hub: hub, ResyncInterval: 5 * time.Second, loading: true}
}

// Refresh replaces the collection with a full fetch. On failure the previous
// collection stays in place. Loading turns false once the first attempt
// settles either way.
func (f *OrderFeed) Refresh(ctx context.Context) error {
	orders, err := f.source.FetchAll(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		utils.ErrorLogger.Printf("order feed: refresh failed, keeping %d cached orders: %v", len(f.orders), err)
		return err
	}
	f.orders = orders
	return nil
}

func (f *OrderFeed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// Snapshot returns a copy safe for the caller to filter.
func (f *OrderFeed) Snapshot() []models.Order {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Order, len(f.orders))
	copy(out, f.orders)
	return out
}

// Run keeps the collection current until ctx is done. It loads everything,
// then applies events one order at a time. A full reload happens whenever the
// hub dropped events for this feed, and is retried every ResyncInterval while
// the last load or patch failed.
func (f *OrderFeed) Run(ctx context.Context) {
	events, dropped, teardown := f.hub.SubscribeWithDrops(256)
	defer teardown()

	stale := f.Refresh(ctx) != nil

	interval := f.ResyncInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	retry := time.NewTicker(interval)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := f.Apply(ctx, ev); err != nil {
				stale = true
			}
		case <-dropped:
			utils.ErrorLogger.Printf("order feed: missed change events, reloading")
			stale = f.Refresh(ctx) != nil
		case <-retry.C:
			if stale {
				stale = f.Refresh(ctx) != nil
			}
		}
	}
}

// Apply patches the order named by ev. The order is re-read from the store so
// the copy reflects committed state even if events arrive out of order. On
// error the cached copy is left as it was.
func (f *OrderFeed) Apply(ctx context.Context, ev kds.Event) error {
	order, err := f.source.GetOrder(ctx, ev.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		f.remove(ev.OrderID)
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		utils.ErrorLogger.Printf("order feed: patch order %d failed, keeping cached copy: %v", ev.OrderID, err)
		return err
	}
	f.upsert(*order)
	return nil
}

func (f *OrderFeed) upsert(order models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.orders {
		if f.orders[i].ID == order.ID {
			f.orders[i] = order
			return
		}
	}
	f.orders = append(f.orders, order)
	sort.SliceStable(f.orders, func(i, j int) bool {
		a, b := f.orders[i], f.orders[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (f *OrderFeed) remove(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return
		}
	}
}
