package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/router"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/session"
	"github.com/yeremiapane/table-order/utils"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	t      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Orders *services.OrderService
	Feed   *services.OrderFeed
	Users  *services.UserService
	Issuer *session.Issuer
	Hub    *kds.Hub
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedMenu(db))
	return db
}

func newTestEnv(t *testing.T, payments *services.PaymentService) *testEnv {
	t.Helper()
	utils.SilenceLogger()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	hub := kds.NewHub()
	t.Cleanup(hub.Close)

	orders := services.NewOrderService(db, hub, 20)
	menu := services.NewMenuService(db)
	feed := services.NewOrderFeed(orders, hub)
	users := services.NewUserService(db)
	issuer := session.NewIssuer("test-secret", time.Hour)
	if payments == nil {
		payments = services.NewPaymentService(nil)
	}

	r := router.SetupRouter(router.Deps{
		Orders:   orders,
		Feed:     feed,
		Carts:    services.NewCartService(services.NewMemoryCartStore(), menu, orders),
		Menu:     menu,
		Users:    users,
		Payments: payments,
		Hub:      hub,
		Issuer:   issuer,
	})

	return &testEnv{t: t, DB: db, Router: r, Orders: orders, Feed: feed, Users: users, Issuer: issuer, Hub: hub}
}

// token issues a session for role without a stored user.
func (e *testEnv) token(role models.Role) string {
	tok, _, err := e.Issuer.Issue(models.User{ID: 1, Username: string(role), Role: role})
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (e *testEnv) refresh() {
	e.t.Helper()
	require.NoError(e.t, e.Feed.Refresh(context.Background()))
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (e *testEnv) createOrder(table int, items ...services.LineItemInput) models.Order {
	e.t.Helper()
	order, err := e.Orders.CreateOrder(context.Background(), table, items, "cash")
	require.NoError(e.t, err)
	return *order
}

