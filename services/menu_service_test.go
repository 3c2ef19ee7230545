package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
)

func TestMenuService(t *testing.T) {
	ms := NewMenuService(setupTestDB(t))
	ctx := context.Background()

	items, err := ms.FetchMenuItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 7)

	grouped, err := ms.Grouped(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped[models.CategoryBreakfast], 4)
	assert.Len(t, grouped[models.CategoryBrunch], 1)
	assert.Len(t, grouped[models.CategoryDrinks], 2)

	drinks, err := ms.ByCategory(ctx, models.CategoryDrinks)
	require.NoError(t, err)
	require.Len(t, drinks, 2)
	assert.Equal(t, "Café Pocillo", drinks[0].Name)

	_, err = ms.ByCategory(ctx, models.Category("dessert"))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	item, err := ms.GetMenuItem(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "31000", item.Price.String())

	_, err = ms.GetMenuItem(ctx, 50)
	assert.ErrorIs(t, err, ErrUnknownMenuItem)
}
