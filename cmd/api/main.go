package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/avelarde/comanda-backend/api/routes"
	internalauth "github.com/avelarde/comanda-backend/internal/auth"
	"github.com/avelarde/comanda-backend/internal/bills"
	"github.com/avelarde/comanda-backend/internal/catalog"
	"github.com/avelarde/comanda-backend/internal/customers"
	"github.com/avelarde/comanda-backend/internal/notifications"
	"github.com/avelarde/comanda-backend/internal/orders"
	"github.com/avelarde/comanda-backend/internal/reservations"
	"github.com/avelarde/comanda-backend/internal/settings"
	"github.com/avelarde/comanda-backend/internal/tables"
	"github.com/avelarde/comanda-backend/internal/users"
	stripewebhook "github.com/avelarde/comanda-backend/internal/webhooks/stripe"
	"github.com/avelarde/comanda-backend/pkg/auth/session"
	"github.com/avelarde/comanda-backend/pkg/config"
	"github.com/avelarde/comanda-backend/pkg/db"
	"github.com/avelarde/comanda-backend/pkg/logger"
	"github.com/avelarde/comanda-backend/pkg/mailer"
	"github.com/avelarde/comanda-backend/pkg/migrate"
	redisclient "github.com/avelarde/comanda-backend/pkg/redis"
	pkgstripe "github.com/avelarde/comanda-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redisclient.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var mail mailer.Mailer
	if cfg.Sendgrid.APIKey != "" {
		mail, err = mailer.New(cfg.Sendgrid)
		if err != nil {
			logg.Error(context.Background(), "failed to create mailer", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sendgrid not configured, outbound email disabled")
	}
	notifier := notifications.NewService(mail, cfg.Notifications, cfg.Sendgrid.ContactTo)

	var payments pkgstripe.PaymentsClient
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		payments = pkgstripe.NewPaymentsClient(stripeClient, cfg.Stripe.IntentRetries, cfg.Stripe.IntentBackoff)
	} else {
		logg.Warn(context.Background(), "stripe not configured, online payments disabled")
	}

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)

	catalogSvc, err := catalog.NewService(catalogRepo)
	exitOnErr(logg, "catalog service", err)
	settingsSvc, err := settings.NewService(settingsRepo)
	exitOnErr(logg, "settings service", err)
	customersSvc, err := customers.NewService(customersRepo, dbClient)
	exitOnErr(logg, "customers service", err)

	ordersSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		dbClient,
		catalogRepo,
		settingsRepo,
		payments,
		notifier,
		logg,
	)
	exitOnErr(logg, "orders service", err)

	tablesSvc, err := tables.NewService(tables.NewRepository(gormDB), dbClient, catalogRepo)
	exitOnErr(logg, "tables service", err)
	reservationsSvc, err := reservations.NewService(reservations.NewRepository(gormDB))
	exitOnErr(logg, "reservations service", err)
	billsSvc, err := bills.NewService(bills.NewRepository(gormDB), dbClient, customersRepo)
	exitOnErr(logg, "bills service", err)
	usersSvc, err := users.NewService(users.NewRepository(gormDB), cfg.Password)
	exitOnErr(logg, "users service", err)
	authSvc, err := internalauth.NewService(users.NewRepository(gormDB), sessionManager, cfg.JWT, logg)
	exitOnErr(logg, "auth service", err)

	webhookSvc, err := stripewebhook.NewService(ordersSvc)
	exitOnErr(logg, "stripe webhook service", err)
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventTTL, "stripe")
	exitOnErr(logg, "stripe idempotency guard", err)

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:          authSvc,
		Orders:        ordersSvc,
		Catalog:       catalogSvc,
		Tables:        tablesSvc,
		Reservations:  reservationsSvc,
		Customers:     customersSvc,
		Bills:         billsSvc,
		Users:         usersSvc,
		Settings:      settingsSvc,
		Notifications: notifier,

		StripeWebhook:      webhookSvc,
		StripeWebhookGuard: webhookGuard,
		StripeVerifier:     payments,
	})

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
		if errs != nil {
			logg.Error(ctx, "shutdown finished with errors", errs)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
