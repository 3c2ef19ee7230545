package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/table-order/broker"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/metrics"
	"github.com/yeremiapane/table-order/router"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/session"
	"github.com/yeremiapane/table-order/utils"
)

// table-order serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, db, err := bootDB()
	if err != nil {
		return err
	}
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := database.SeedMenu(db); err != nil {
		return err
	}
	if err := database.SeedUsers(db, cfg.SeedPasswords); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := kds.NewHub()
	defer hub.Close()
	if err := metrics.RegisterSubscriberGauge(hub.Count); err != nil {
		utils.ErrorLogger.Printf("subscriber gauge not registered: %v", err)
	}

	orders := services.NewOrderService(db, hub, cfg.MaxTables)
	menu := services.NewMenuService(db)

	if cfg.AMQP.Enabled() {
		mq, err := broker.Dial(cfg.AMQP)
		if err != nil {
			return err
		}
		defer mq.Close()
		if err := mq.DeclareExchange(services.OrdersExchange); err != nil {
			return err
		}

		orders.Outbox = true
		relay := services.NewEventRelay(db, mq)
		relay.Interval = cfg.RelayInterval
		relay.Start()
		defer relay.Stop()
		utils.InfoLogger.Printf("Relaying order events to rabbitmq at %s:%d", cfg.AMQP.Host, cfg.AMQP.Port)
	}

	var store services.CartStore = services.NewMemoryCartStore()
	if cfg.RedisAddr != "" {
		client, err := services.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		store = services.NewRedisCartStore(client, cfg.CartTTL)
		utils.InfoLogger.Printf("Carts stored in redis at %s", cfg.RedisAddr)
	}

	feed := services.NewOrderFeed(orders, hub)
	go feed.Run(ctx)

	payments := services.NewPaymentService(&services.PaymentConfig{
		AccessToken:     cfg.Payment.AccessToken,
		BaseURL:         cfg.Payment.BaseURL,
		NotificationURL: cfg.Payment.NotificationURL,
		Currency:        cfg.Payment.Currency,
	})
	if err := payments.ValidateConfig(); err != nil {
		utils.ErrorLogger.Printf("payments disabled: %v", err)
	}

	r := router.SetupRouter(router.Deps{
		Orders:            orders,
		Feed:              feed,
		Carts:             services.NewCartService(store, menu, orders),
		Menu:              menu,
		Users:             services.NewUserService(db),
		Payments:          payments,
		Hub:               hub,
		Issuer:            session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		CORSOrigin:        cfg.CORSOrigin,
		RequestsPerSecond: cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// websocket clients end when the hub closes
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
