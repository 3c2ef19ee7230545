package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/views"
)

func newTestOrderService(t *testing.T) (*OrderService, *recordingNotifier) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	return NewOrderService(db, notifier, 20), notifier
}

func TestCreateAndModifyOrder(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 4, []LineItemInput{
		{MenuItemID: 1, Quantity: 1},
		{MenuItemID: 2, Quantity: 2},
	}, "cash")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, "16600", order.Total.String())
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.TableDuring, order.StatusTable)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Festeggia e Divertiti", order.Items[1].Name)
	assert.Equal(t, "6500", order.Items[1].Price.String())

	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.StatusPreparing)
	require.NoError(t, err)

	modified, err := svc.ModifyOrder(ctx, 4, []LineItemInput{{MenuItemID: 6, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, order.ID, modified.ID)
	assert.Equal(t, "18800", modified.Total.String())
	assert.Equal(t, models.StatusPending, modified.Status)
	assert.Len(t, modified.Items, 3)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "18800", stored.Total.String())
	assert.Len(t, stored.Items, 3)

	assert.Equal(t, []string{kds.EventOrderCreated, kds.EventOrderStatus, kds.EventOrderModified}, notifier.types())
}

func TestCreateOrderRefusesOpenTable(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, 2, []LineItemInput{{MenuItemID: 7, Quantity: 1}}, "cash")
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, 2, []LineItemInput{{MenuItemID: 6, Quantity: 1}}, "cash")
	assert.ErrorIs(t, err, ErrTableSessionOpen)

	// once the table is closed a new visit gets a new order
	_, err = svc.UpdateTableStatus(ctx, first.ID, models.TableFinished)
	require.NoError(t, err)

	second, err := svc.CreateOrder(ctx, 2, []LineItemInput{{MenuItemID: 6, Quantity: 1}}, "card")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.TableDuring, second.StatusTable)
	assert.Equal(t, models.StatusPending, second.Status)

	active, err := svc.ActiveOrder(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// the old order cannot be reopened while the new one is open
	_, err = svc.UpdateTableStatus(ctx, first.ID, models.TableDuring)
	assert.ErrorIs(t, err, ErrTableSessionOpen)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		table   int
		items   []LineItemInput
		wantErr error
	}{
		{"table zero", 0, []LineItemInput{{MenuItemID: 1, Quantity: 1}}, ErrInvalidTable},
		{"table above max", 21, []LineItemInput{{MenuItemID: 1, Quantity: 1}}, ErrInvalidTable},
		{"no items", 1, nil, ErrEmptyOrder},
		{"only invalid lines", 1, []LineItemInput{{MenuItemID: 0, Quantity: 2}, {MenuItemID: 3, Quantity: 0}}, ErrNoValidItems},
		{"unknown menu item", 1, []LineItemInput{{MenuItemID: 99, Quantity: 1}}, ErrUnknownMenuItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.table, tt.items, "cash")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	n, err := svc.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, notifier.types())
}

func TestCreateOrderSkipsInvalidLines(t *testing.T) {
	svc, _ := newTestOrderService(t)

	order, err := svc.CreateOrder(context.Background(), 1, []LineItemInput{
		{MenuItemID: 5, Quantity: 1},
		{MenuItemID: 6, Quantity: -1},
		{MenuItemID: 0, Quantity: 1},
	}, "cash")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "31000", order.Total.String())
}

func TestModifyOrderWithoutOpenTable(t *testing.T) {
	svc, _ := newTestOrderService(t)

	_, err := svc.ModifyOrder(context.Background(), 3, []LineItemInput{{MenuItemID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNoActiveOrder)
}

func TestUpdateStatusErrors(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, 1, models.OrderStatus("cancelled"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateOrderStatus(ctx, 42, models.StatusPreparing)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateTableStatus(ctx, 42, models.TableFinished)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateTableStatus(ctx, 1, models.TableStatus("closed"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMarkServed(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 5, []LineItemInput{{MenuItemID: 1, Quantity: 1}, {MenuItemID: 7, Quantity: 2}}, "cash")
	require.NoError(t, err)

	served, err := svc.MarkServed(ctx, order.ID)
	require.NoError(t, err)
	for _, it := range served.Items {
		assert.True(t, it.Served, it.Name)
	}
	assert.Contains(t, notifier.types(), kds.EventOrderServed)

	_, err = svc.MarkServed(ctx, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCountAndListenToUpdates(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	a, err := svc.CreateOrder(ctx, 1, []LineItemInput{{MenuItemID: 1, Quantity: 1}}, "cash")
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	_, err = svc.CreateOrder(ctx, 2, []LineItemInput{{MenuItemID: 2, Quantity: 1}}, "cash")
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	_, err = svc.UpdateOrderStatus(ctx, a.ID, models.StatusPreparing)
	require.NoError(t, err)

	n, err := svc.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stamps, err := svc.ListenToUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, stamps, 2)
	assert.True(t, stamps[0].Equal(clock), "latest first, got %v", stamps[0])
	assert.True(t, stamps[1].Equal(clock.Add(-time.Minute)))

	orders, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, 2, orders[0].TableNumber)
}

func TestOutboxRecordsEvents(t *testing.T) {
	svc, _ := newTestOrderService(t)
	svc.Outbox = true
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 9, []LineItemInput{{MenuItemID: 4, Quantity: 1}}, "cash")
	require.NoError(t, err)
	_, err = svc.UpdateTableStatus(ctx, order.ID, models.TableFinished)
	require.NoError(t, err)

	var events []models.OrderEvent
	require.NoError(t, svc.DB.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, kds.EventOrderCreated, events[0].Type)
	assert.Equal(t, kds.EventTableStatus, events[1].Type)
	assert.Equal(t, models.TableFinished, events[1].StatusTable)
	assert.Equal(t, 9, events[1].TableNumber)
	assert.False(t, events[1].Processed)
}

func TestConcurrentCreateOpensOneOrder(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(ctx, 7, []LineItemInput{{MenuItemID: 6, Quantity: 1}}, "cash")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrTableSessionOpen)
	}
	assert.Equal(t, 1, ok)
}

func TestAdvanceOrderStatusDecidesOnStoredRow(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 5, []LineItemInput{{MenuItemID: 3, Quantity: 1}}, "cash")
	require.NoError(t, err)
	stale := *order

	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.StatusPreparing)
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.StatusCompleted)
	require.NoError(t, err)

	// the copy read before completion would still allow the move
	_, err = views.KitchenMove(stale, views.LanePreparing)
	require.NoError(t, err)

	events := len(notifier.types())
	_, changed, err := svc.AdvanceOrderStatus(ctx, order.ID, func(o models.Order) (models.OrderStatus, error) {
		return views.KitchenMove(o, views.LanePreparing)
	})
	assert.ErrorIs(t, err, views.ErrTransitionNotAllowed)
	assert.False(t, changed)
	assert.Len(t, notifier.types(), events)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestAdvanceOrderStatus(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 6, []LineItemInput{{MenuItemID: 4, Quantity: 1}}, "cash")
	require.NoError(t, err)

	got, changed, err := svc.AdvanceOrderStatus(ctx, order.ID, func(o models.Order) (models.OrderStatus, error) {
		return views.KitchenMove(o, views.LanePending)
	})
	require.NoError(t, err)
	assert.False(t, changed, "already pending")
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, []string{kds.EventOrderCreated}, notifier.types())

	got, changed, err = svc.AdvanceOrderStatus(ctx, order.ID, func(o models.Order) (models.OrderStatus, error) {
		return views.KitchenMove(o, views.LanePreparing)
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusPreparing, got.Status)

	got, _, err = svc.AdvanceOrderStatus(ctx, order.ID, views.KitchenComplete)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, []string{kds.EventOrderCreated, kds.EventOrderStatus, kds.EventOrderStatus}, notifier.types())

	_, _, err = svc.AdvanceOrderStatus(ctx, 999, views.KitchenComplete)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdvanceTableStatus(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 7, []LineItemInput{{MenuItemID: 7, Quantity: 2}}, "cash")
	require.NoError(t, err)

	closed, changed, err := svc.AdvanceTableStatus(ctx, order.ID, views.WaiterClose)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.TableFinished, closed.StatusTable)

	_, changed, err = svc.AdvanceTableStatus(ctx, order.ID, views.WaiterClose)
	assert.ErrorIs(t, err, views.ErrTransitionNotAllowed)
	assert.False(t, changed)
}
