package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/controllers"
	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/metrics"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/session"
)

// Deps is everything the HTTP layer needs from the running service.
type Deps struct {
	Orders   *services.OrderService
	Feed     controllers.FeedReader
	Carts    *services.CartService
	Menu     *services.MenuService
	Users    *services.UserService
	Payments *services.PaymentService
	Hub      *kds.Hub
	Issuer   *session.Issuer

	CORSOrigin string
	// RequestsPerSecond caps each client IP across all routes; 0 disables it.
	RequestsPerSecond int
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(metrics.Middleware())
	if d.RequestsPerSecond > 0 {
		r.Use(middlewares.NewRateLimiter(d.RequestsPerSecond, time.Second).RateLimit())
	}

	menuCtrl := controllers.NewMenuController(d.Menu)
	orderCtrl := controllers.NewOrderController(d.Orders)
	cartCtrl := controllers.NewCartController(d.Carts)
	kitchenCtrl := controllers.NewKitchenController(d.Feed, d.Orders)
	waiterCtrl := controllers.NewWaiterController(d.Feed, d.Orders)
	adminCtrl := controllers.NewAdminController(d.Feed)
	userCtrl := controllers.NewUserController(d.Users, d.Issuer)
	kdsCtrl := controllers.NewKDSController(d.Hub)
	paymentCtrl := controllers.NewPaymentController(d.Payments, d.Menu)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	login := r.Group("/")
	login.Use(middlewares.NewStrictRateLimiter(12*time.Second, 5).Limit())
	{
		login.POST("/login", userCtrl.Login)
	}

	r.GET("/menu", menuCtrl.GetMenu)
	r.GET("/menu/:category", menuCtrl.GetMenuByCategory)

	// diners, no login
	tables := r.Group("/tables/:table")
	{
		tables.GET("/cart", cartCtrl.GetCart)
		tables.POST("/cart/items", cartCtrl.AddItem)
		tables.PATCH("/cart/items/:menu_item_id", cartCtrl.ChangeQuantity)
		tables.DELETE("/cart/items/:menu_item_id", cartCtrl.RemoveItem)
		tables.POST("/cart/submit", cartCtrl.Submit)

		tables.GET("/order", orderCtrl.GetActiveOrder)
		tables.PUT("/order", orderCtrl.ModifyOrder)
	}
	r.POST("/orders", orderCtrl.CreateOrder)
	r.POST("/payments/preference", paymentCtrl.CreatePreference)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(d.Issuer))

	auth.GET("/profile", userCtrl.GetProfile)

	read := auth.Group("/")
	read.Use(middlewares.RequireCapability(session.CapReadOrders))
	{
		read.GET("/ws", kdsCtrl.Stream)
		read.GET("/orders", orderCtrl.GetAllOrders)
		read.GET("/orders/count", orderCtrl.CountOrders)
		read.GET("/orders/updates", orderCtrl.ListenToUpdates)
		read.GET("/orders/changes", orderCtrl.Changes)
		read.GET("/orders/:id", orderCtrl.GetOrderByID)
	}

	auth.PATCH("/orders/:id/status", middlewares.RequireCapability(session.CapAdvanceOrders), orderCtrl.UpdateOrderStatus)
	auth.PATCH("/orders/:id/table-status", middlewares.RequireCapability(session.CapCloseTables), orderCtrl.UpdateTableStatus)

	kitchen := auth.Group("/kitchen")
	kitchen.Use(middlewares.RequireCapability(session.CapAdvanceOrders))
	{
		kitchen.GET("/orders", kitchenCtrl.GetBoard)
		kitchen.POST("/orders/:id/move", kitchenCtrl.Move)
		kitchen.POST("/orders/:id/complete", kitchenCtrl.Complete)
	}

	waiter := auth.Group("/waiter")
	{
		waiter.GET("/orders", middlewares.RequireCapability(session.CapCloseTables), waiterCtrl.GetOpenTables)
		waiter.POST("/orders/:id/close", middlewares.RequireCapability(session.CapCloseTables), waiterCtrl.Close)
		waiter.POST("/orders/:id/served", middlewares.RequireCapability(session.CapServeOrders), waiterCtrl.Served)
	}

	admin := auth.Group("/admin")
	{
		admin.GET("/reports", middlewares.RequireCapability(session.CapReadReports), adminCtrl.GetReport)
		admin.GET("/reports/orders.pdf", middlewares.RequireCapability(session.CapReadReports), adminCtrl.GetReportPDF)
		admin.GET("/users", middlewares.RequireCapability(session.CapManageUsers), userCtrl.GetAllUsers)
		admin.POST("/users", middlewares.RequireCapability(session.CapManageUsers), userCtrl.CreateUser)
	}

	return r
}
