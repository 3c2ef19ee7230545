package Controllers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
)

func TestWebSocketStream(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+env.token(models.RoleKitchen), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.Hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	order := env.createOrder(6, services.LineItemInput{MenuItemID: 4, Quantity: 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev kds.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, kds.EventOrderCreated, ev.Type)
	assert.Equal(t, order.ID, ev.OrderID)
	assert.Equal(t, 6, ev.TableNumber)
}
