package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
)

func newTestCartService(t *testing.T) *CartService {
	svc, _ := newTestOrderService(t)
	return NewCartService(NewMemoryCartStore(), NewMenuService(svc.DB), svc)
}

func TestCartSubmitCreatesThenAmends(t *testing.T) {
	cs := newTestCartService(t)
	ctx := context.Background()

	_, err := cs.AddItem(ctx, 4, 1)
	require.NoError(t, err)
	_, err = cs.AddItem(ctx, 4, 2)
	require.NoError(t, err)
	c, err := cs.ChangeQuantity(ctx, 4, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "16600", c.Total().String())

	order, created, err := cs.Submit(ctx, 4, "cash")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "16600", order.Total.String())

	c, err = cs.Get(ctx, 4)
	require.NoError(t, err)
	assert.True(t, c.Empty(), "cart is emptied after submit")

	_, err = cs.AddItem(ctx, 4, 6)
	require.NoError(t, err)
	amended, created, err := cs.Submit(ctx, 4, "cash")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, order.ID, amended.ID)
	assert.Equal(t, "18800", amended.Total.String())
	assert.Equal(t, models.StatusPending, amended.Status)
}

func TestCartSubmitEmpty(t *testing.T) {
	cs := newTestCartService(t)

	_, _, err := cs.Submit(context.Background(), 1, "cash")
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCartEditing(t *testing.T) {
	cs := newTestCartService(t)
	ctx := context.Background()

	_, err := cs.AddItem(ctx, 2, 99)
	assert.ErrorIs(t, err, ErrUnknownMenuItem)

	_, err = cs.AddItem(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = cs.AddItem(ctx, 2, 7)
	require.NoError(t, err)
	c, err := cs.ChangeQuantity(ctx, 2, 7, -1)
	require.NoError(t, err)
	assert.True(t, c.Empty())

	_, err = cs.AddItem(ctx, 2, 5)
	require.NoError(t, err)
	c, err = cs.RemoveItem(ctx, 2, 5)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestMemoryCartStoreIsolatesTables(t *testing.T) {
	cs := newTestCartService(t)
	ctx := context.Background()

	_, err := cs.AddItem(ctx, 1, 3)
	require.NoError(t, err)

	other, err := cs.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, other.Empty())

	mine, err := cs.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine.Lines, 1)
	assert.Equal(t, "La Vita è Bella", mine.Lines[0].Name)
}

func TestCartSubmitAfterTableClosedOpensNewOrder(t *testing.T) {
	cs := newTestCartService(t)
	ctx := context.Background()

	_, err := cs.AddItem(ctx, 9, 6)
	require.NoError(t, err)
	first, created, err := cs.Submit(ctx, 9, "cash")
	require.NoError(t, err)
	require.True(t, created)

	_, err = cs.Orders.UpdateTableStatus(ctx, first.ID, models.TableFinished)
	require.NoError(t, err)

	_, err = cs.AddItem(ctx, 9, 7)
	require.NoError(t, err)
	second, created, err := cs.Submit(ctx, 9, "cash")
	require.NoError(t, err)
	assert.True(t, created, "a closed table starts a new order")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.TableDuring, second.StatusTable)
	assert.Equal(t, "3500", second.Total.String())
}
