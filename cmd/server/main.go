package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/database"
	"github.com/example/vurel/internal/logger"
	"github.com/example/vurel/internal/routes"
	"github.com/example/vurel/internal/services"
	"github.com/example/vurel/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Error("Server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL, lg)
	if err != nil {
		return errors.Wrap(err, "connect database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			lg.Warn("Close database", zap.Error(err))
		}
	}()

	st := store.New(db, cfg.DBTimeout)
	svc := wire(cfg, lg, st, db)

	opts := routes.Options{CORSOrigins: cfg.CORSOrigins, OTPRateLimit: cfg.OTPRateLimit}
	app := routes.New(lg, opts)
	routes.Register(app, svc, opts)

	go func() {
		<-ctx.Done()
		lg.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
	}()

	lg.Info("Server listening", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		return errors.Wrap(err, "listen")
	}

	svc.Orders.Wait()
	return nil
}

func wire(cfg *config.Config, lg *zap.Logger, st *store.Store, db *gorm.DB) routes.Services {
	if !cfg.SMTP.Enabled() {
		lg.Warn("SMTP not configured, OTP codes will not be emailed")
	}
	telegram := services.NewTelegramService(cfg.Telegram, cfg.Razorpay.Currency)
	if !telegram.Enabled() {
		lg.Info("Telegram notifications disabled")
	}

	auth := services.NewAuthService(st.Users, st.OTPs, services.NewSMTPMailer(cfg.SMTP), services.AuthConfig{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenExpires,
		DevEcho:  cfg.OTPDevEcho,
	}, lg.Named("auth"))
	payments := services.NewPaymentService(cfg.Razorpay, st.Payments, lg.Named("payment"))
	orders := services.NewOrderService(st.Orders, st.Users, auth, payments, telegram, lg.Named("order"))

	return routes.Services{
		Auth:      auth,
		Catalog:   services.NewCatalogService(st.Products),
		Coupons:   services.NewCouponService(st.Coupons),
		Orders:    orders,
		Payments:  payments,
		Dashboard: services.NewDashboardService(st.Orders, st.Products, st.Users),
		Customers: services.NewCustomerService(st.Users, st.Orders),
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	}
}
