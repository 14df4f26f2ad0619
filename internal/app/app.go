package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/checkout"
	"github.com/metinatakli/storefront-payments/internal/config"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/events"
	"github.com/metinatakli/storefront-payments/internal/handler"
	"github.com/metinatakli/storefront-payments/internal/mailer"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/metinatakli/storefront-payments/internal/middleware"
	"github.com/metinatakli/storefront-payments/internal/notifier"
	"github.com/metinatakli/storefront-payments/internal/payment"
	"github.com/metinatakli/storefront-payments/internal/poller"
	"github.com/metinatakli/storefront-payments/internal/repository"
	appvalidator "github.com/metinatakli/storefront-payments/internal/validator"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/metinatakli/storefront-payments/internal/vcs"
	"github.com/metinatakli/storefront-payments/internal/webhook"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "storefront-payments"

var (
	version = vcs.Version()
)

type checkoutService interface {
	CreateServicePayment(ctx context.Context, input checkout.ServicePaymentInput) (*checkout.PaymentSession, error)
	CreateIntegratorPayment(
		ctx context.Context,
		provider *domain.Provider,
		input checkout.IntegratorPaymentInput) (*checkout.PaymentSession, error)
	Resolve(ctx context.Context, token string) (*checkout.Session, error)
	Refund(ctx context.Context, provider *domain.Provider, input checkout.RefundInput) (*domain.RefundResult, error)
}

type webhookReconciler interface {
	HandleDelivery(ctx context.Context, payload []byte, signature string) error
}

type paymentVerifier interface {
	Poll(ctx context.Context, in poller.Input, interval time.Duration, maxAttempts int) (poller.Result, error)
}

type gatewayCatalog interface {
	List() []payment.RegistryEntry
	DefaultName() domain.GatewayName
}

// backgroundWork is anything that finishes in the background after a
// response was sent and must be drained before exit.
type backgroundWork interface {
	Wait()
}

type Application struct {
	config     config.Config
	logger     *slog.Logger
	validator  *validator.Validate
	metrics    *metrics.Metrics
	limiter    *middleware.RateLimiter
	health     *handler.HealthcheckHandler
	background backgroundWork

	serviceRepo  domain.ServiceRepository
	providerRepo domain.ProviderRepository

	gateways   gatewayCatalog
	checkout   checkoutService
	reconciler webhookReconciler
	verifier   paymentVerifier

	pollInterval time.Duration
	pollAttempts int
}

type Deps struct {
	Config       config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Health       *handler.HealthcheckHandler
	Background   backgroundWork
	ServiceRepo  domain.ServiceRepository
	ProviderRepo domain.ProviderRepository
	Gateways     gatewayCatalog
	Checkout     checkoutService
	Reconciler   webhookReconciler
	Verifier     paymentVerifier
}

func NewApp(deps Deps) *Application {
	health := deps.Health
	if health == nil {
		health = handler.NewHealthcheckHandler(deps.Config, nil)
	}

	return &Application{
		config:       deps.Config,
		logger:       deps.Logger,
		validator:    appvalidator.NewValidator(),
		metrics:      deps.Metrics,
		limiter:      middleware.NewRateLimiter(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst, deps.Config.RateLimit.Enabled),
		health:       health,
		background:   deps.Background,
		serviceRepo:  deps.ServiceRepo,
		providerRepo: deps.ProviderRepo,
		gateways:     deps.Gateways,
		checkout:     deps.Checkout,
		reconciler:   deps.Reconciler,
		verifier:     deps.Verifier,
		pollInterval: time.Second,
		pollAttempts: 5,
	}
}

func Run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	if cfg.DisplayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	textHandler := slog.NewTextHandler(os.Stdout, nil)
	logger := slog.New(textHandler)

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(textHandler, otelslog.NewHandler(serviceName)))
	}

	slog.SetDefault(logger)

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	credentialVault, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	registry, err := payment.NewRegistry(cfg.DefaultGateway, payment.StripeConfig{
		SecretKey:      cfg.Stripe.SecretKey,
		PublishableKey: cfg.Stripe.PublishableKey,
		PaymentMethods: cfg.Stripe.PaymentMethods,
	})
	if err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	m := metrics.New()

	orderRepo := repository.NewPostgresOrderRepository(db)
	serviceRepo := repository.NewPostgresServiceRepository(db)
	providerRepo := repository.NewPostgresProviderRepository(db)

	integratorNotifier := notifier.New(
		&http.Client{},
		notifier.Config{
			MaxAttempts:    cfg.Notifier.MaxAttempts,
			BaseDelay:      cfg.Notifier.BaseDelay,
			AttemptTimeout: cfg.Notifier.AttemptTimeout,
			AlertRecipient: cfg.Notifier.AlertRecipient,
		},
		mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		m,
		logger,
	)

	checkoutService := checkout.NewService(checkout.Deps{
		Orders:    orderRepo,
		Services:  serviceRepo,
		Providers: providerRepo,
		Gateways:  registry,
		Creds:     credentialVault,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})

	reconciler := webhook.NewReconciler(webhook.Deps{
		Orders:    orderRepo,
		Providers: providerRepo,
		Services:  serviceRepo,
		Events:    repository.NewRedisEventStore(redisClient, cfg.Redis.EventTTL),
		Secrets:   webhook.NewStoreSecrets(cfg.Stripe.WebhookSecret, providerRepo, credentialVault, logger),
		Notifier:  integratorNotifier,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})

	app := NewApp(Deps{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Health: handler.NewHealthcheckHandler(cfg, map[string]handler.Pinger{
			"postgres": db,
			"redis":    redisPinger{redisClient},
		}),
		Background:   integratorNotifier,
		ServiceRepo:  serviceRepo,
		ProviderRepo: providerRepo,
		Gateways:     registry,
		Checkout:     checkoutService,
		Reconciler:   reconciler,
		Verifier:     poller.NewVerifier(poller.NewStripeFetcher(nil), logger),
	})

	return app.run()
}

type redisPinger struct {
	client redis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func newPublisher(cfg config.Config, logger *slog.Logger) (domain.OrderEventPublisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not set, order status events are not published")
		return events.NopPublisher{}, func() {}, nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if err != nil {
		return nil, nil, err
	}

	return publisher, publisher.Close, nil
}

func NewRedisClient(cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg config.Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go app.limiter.Run(limiterCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		if app.background != nil {
			app.logger.Info("waiting for integrator notifications to finish")
			app.background.Wait()
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", version)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
