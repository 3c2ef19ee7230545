package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-order/models"
)

func TestGetMenu(t *testing.T) {
	env := newTestEnv(t, nil)

	w, resp := env.do(http.MethodGet, "/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)

	grouped := decode[map[models.Category][]models.MenuItem](t, resp.Data)
	assert.Len(t, grouped[models.CategoryBreakfast], 4)
	assert.Len(t, grouped[models.CategoryBrunch], 1)
	assert.Len(t, grouped[models.CategoryDrinks], 2)
}

func TestGetMenuByCategory(t *testing.T) {
	env := newTestEnv(t, nil)

	w, resp := env.do(http.MethodGet, "/menu/drinks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]models.MenuItem](t, resp.Data)
	require.Len(t, items, 2)
	assert.Equal(t, "Submarino", items[1].Name)
	assert.Equal(t, "3500", items[1].Price.String())

	w, resp = env.do(http.MethodGet, "/menu/desserts", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Status)
}
