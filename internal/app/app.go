// Package app initializes and runs the storefront server: database and
// migrations, object storage, payment gateway, event broker, HTTP API,
// the payment-result consumer and the pending-order reconciler.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/events"
	"github.com/ritvika/paintshop/internal/filestore"
	"github.com/ritvika/paintshop/internal/httpapi"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/mail"
	"github.com/ritvika/paintshop/internal/metrics"
	"github.com/ritvika/paintshop/internal/payment"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
	"github.com/ritvika/paintshop/internal/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	router   *httpapi.Router
	checkout *services.CheckoutService
	rabbit   *events.Rabbit
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := filestore.NewS3Store(ctx, cfg.S3BaseEndpoint, cfg.S3Region,
		cfg.S3RootUser, cfg.S3RootPassword, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	var gateway payment.Gateway
	if cfg.PaymentAPIKey == "" {
		logger.Warn(ctx, "no payment api key configured, using fake gateway")
		gateway = payment.NewFakeGateway()
	} else {
		gateway = payment.NewHTTPGateway(cfg.PaymentEndpoint, cfg.PaymentAPIKey, cfg.PaymentTimeout)
	}

	var mailer mail.Mailer = mail.NoopMailer{}
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	}

	var rabbit *events.Rabbit
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AmqpURL != "" {
		rabbit, err = events.NewRabbit(cfg.AmqpURL, cfg.AmqpExchange, logger)
		if err != nil {
			logger.Warn(ctx, "event broker unavailable, events disabled", "error", err)
		} else {
			publisher = rabbit
		}
	}

	shopMetrics := metrics.NewShopMetrics(prometheus.DefaultRegisterer)

	userService := services.NewUserService(db, rm, mailer, logger, cfg)
	catalogService, err := services.NewCatalogService(db, rm, store, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog init error: %w", err)
	}
	cartService := services.NewCartService(db, rm)
	checkoutService := services.NewCheckoutService(db, rm, gateway, publisher, shopMetrics, logger, cfg)
	orderService := services.NewOrderService(db, rm)

	router := httpapi.NewRouter(userService, catalogService, cartService,
		checkoutService, orderService, logger, cfg)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		router:   router,
		checkout: checkoutService,
		rabbit:   rabbit,
	}, nil
}

// Run starts the HTTP server, the payment-result consumer and the
// reconciler, and blocks until a termination signal or a fatal error.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.router.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if app.rabbit != nil {
		g.Go(func() error {
			err := app.rabbit.ConsumeTopic(ctx, "shop_payment_results",
				[]string{events.RKPaymentResult}, app.handlePaymentResult)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		app.runReconciler(ctx)
		return nil
	})

	err := g.Wait()

	if app.rabbit != nil {
		app.rabbit.Close()
	}
	if dbErr := app.db.Close(); dbErr != nil {
		app.logger.Error(ctx, "db close error", "error", dbErr)
	}

	app.logger.Info(ctx, "server stopped")
	return err
}

func (app *App) handlePaymentResult(ctx context.Context, routingKey string, body []byte) error {
	var pr events.PaymentResult
	if err := json.Unmarshal(body, &pr); err != nil {
		return fmt.Errorf("bad payment result payload: %w", err)
	}
	return app.checkout.HandlePaymentResult(ctx, &pr)
}

func (app *App) runReconciler(ctx context.Context) {
	ticker := time.NewTicker(app.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.checkout.Reconcile(ctx); err != nil {
				app.logger.Error(ctx, "reconcile error", "error", err)
			}
		}
	}
}
