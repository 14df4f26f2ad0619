package integration_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/app"
	"github.com/metinatakli/storefront-payments/internal/checkout"
	"github.com/metinatakli/storefront-payments/internal/config"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/events"
	"github.com/metinatakli/storefront-payments/internal/mailer"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/metinatakli/storefront-payments/internal/notifier"
	"github.com/metinatakli/storefront-payments/internal/payment"
	"github.com/metinatakli/storefront-payments/internal/poller"
	"github.com/metinatakli/storefront-payments/internal/repository"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/metinatakli/storefront-payments/internal/webhook"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App        *app.Application
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Stripe     *payment.FakeStripe
	Vault      *vault.Vault
	Notifier   *notifier.Notifier
	Mailer     *mailer.Recorder
	Integrator *IntegratorEndpoint
}

func (a *TestApp) Close() {
	a.Notifier.Wait()
	a.Integrator.Close()
	a.Stripe.Close()
	a.Redis.Close()
	a.DB.Close()
}

// IntegratorEndpoint records the notifications an integrator receives.
type IntegratorEndpoint struct {
	server *httptest.Server

	mu            sync.Mutex
	notifications []domain.Notification
}

func newIntegratorEndpoint() *IntegratorEndpoint {
	e := &IntegratorEndpoint{}

	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n domain.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		e.mu.Lock()
		e.notifications = append(e.notifications, n)
		e.mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}))

	return e
}

func (e *IntegratorEndpoint) URL() string {
	return e.server.URL
}

func (e *IntegratorEndpoint) Notifications() []domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Notification, len(e.notifications))
	copy(out, e.notifications)
	return out
}

func (e *IntegratorEndpoint) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifications = nil
}

func (e *IntegratorEndpoint) Close() {
	e.server.Close()
}

func newTestApp(cfg config.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	recorder := mailer.NewRecorder()
	fakeStripe := payment.NewFakeStripe()
	integrator := newIntegratorEndpoint()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	credentialVault, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	registry, err := payment.NewRegistry(cfg.DefaultGateway, payment.StripeConfig{
		SecretKey:      cfg.Stripe.SecretKey,
		PublishableKey: cfg.Stripe.PublishableKey,
		PaymentMethods: cfg.Stripe.PaymentMethods,
		Backends:       fakeStripe.Backends(),
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	orderRepo := repository.NewPostgresOrderRepository(db)
	serviceRepo := repository.NewPostgresServiceRepository(db)
	providerRepo := repository.NewPostgresProviderRepository(db)

	integratorNotifier := notifier.New(
		&http.Client{Timeout: time.Second},
		notifier.Config{
			MaxAttempts:    2,
			BaseDelay:      10 * time.Millisecond,
			AttemptTimeout: time.Second,
			AlertRecipient: cfg.Notifier.AlertRecipient,
		},
		recorder,
		m,
		logger,
	)

	checkoutService := checkout.NewService(checkout.Deps{
		Orders:    orderRepo,
		Services:  serviceRepo,
		Providers: providerRepo,
		Gateways:  registry,
		Creds:     credentialVault,
		Publisher: events.NopPublisher{},
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
		Publisher: events.NopPublisher{},
		Metrics:   m,
		Logger:    logger,
	})

	application := app.NewApp(app.Deps{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Background:   integratorNotifier,
		ServiceRepo:  serviceRepo,
		ProviderRepo: providerRepo,
		Gateways:     registry,
		Checkout:     checkoutService,
		Reconciler:   reconciler,
		Verifier:     poller.NewVerifier(poller.NewStripeFetcher(fakeStripe.Backends()), logger),
	})

	return &TestApp{
		App:        application,
		DB:         db,
		Redis:      redisClient,
		Stripe:     fakeStripe,
		Vault:      credentialVault,
		Notifier:   integratorNotifier,
		Mailer:     recorder,
		Integrator: integrator,
	}, nil
}
