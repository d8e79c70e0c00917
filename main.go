package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/auth"
	"github.com/BatmanBruc/image-credits/internal/checkout"
	"github.com/BatmanBruc/image-credits/internal/config"
	"github.com/BatmanBruc/image-credits/internal/handlers"
	"github.com/BatmanBruc/image-credits/internal/middleware"
	"github.com/BatmanBruc/image-credits/internal/notify"
	"github.com/BatmanBruc/image-credits/internal/recharge"
	"github.com/BatmanBruc/image-credits/internal/scheduler"
	"github.com/BatmanBruc/image-credits/store"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	if err := config.LoadEnvFiles("config.env", ".env"); err != nil {
		log.Printf("Failed to read env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		_ = rdb.Close()
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	orders := store.NewRedisOrderStore(rdb, cfg.OrderTTL)
	balances := store.NewBalanceChannel(rdb)

	widget := checkout.NewWidget(cfg.CheckoutScriptURL, &http.Client{Timeout: 10 * time.Second}, logger)
	go acquireWidget(ctx, widget, logger)

	listeners := notify.Fanout{notify.PublisherListener{Publisher: balances}}
	if cfg.TelegramEnabled() {
		b, err := bot.New(cfg.TelegramBotToken, bot.WithHTTPClient(30*time.Second, &http.Client{Timeout: 30 * time.Second}))
		if err != nil {
			logger.Warn("telegram feed disabled", zap.Error(err))
		} else {
			listeners = append(listeners, notify.NewTelegramFeed(b, cfg.TelegramChatID))
		}
	}

	svc := recharge.NewService(recharge.Deps{
		Billing:  pgStore,
		Orders:   orders,
		Locker:   store.NewRedisLocker(rdb),
		Gateway:  checkout.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret),
		Widget:   widget,
		Notifier: listeners,
		Logger:   logger,
	})

	reconciler := scheduler.NewScheduler(orders, svc, logger, scheduler.Config{
		Workers:  cfg.ReconcileWorkers,
		Interval: cfg.ReconcileInterval,
	})
	reconciler.Start()

	authn := middleware.NewAuth(auth.NewVerifier(cfg.JWTSecret), pgStore, logger)
	h := handlers.NewHandlers(svc, balances, widget, logger)
	router := handlers.SetupRoutes(h, authn, handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Health:         []handlers.HealthChecker{pgStore.Ping, rdb.Ping},
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)
	reconciler.Stop()
	widget.Release()
	pgStore.Close()
	err = multierr.Append(err, rdb.Close())
	if err != nil {
		logger.Error("shutdown finished with errors", zap.Error(err))
		return
	}
	logger.Info("shutdown complete")
}

func acquireWidget(ctx context.Context, widget *checkout.Widget, logger *zap.Logger) {
	for {
		err := widget.Acquire(ctx)
		if err == nil {
			return
		}
		logger.Warn("checkout script unavailable, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(30 * time.Second):
		}
	}
}
