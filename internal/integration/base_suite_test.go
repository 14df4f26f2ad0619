package integration_test

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/storefront-payments/internal/config"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	dbName         = "storefront_payments"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

type BaseSuite struct {
	suite.Suite
	app      *TestApp
	services *backingServices
	server   *httptest.Server
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	services, err := startBackingServices(ctx)
	if err != nil {
		log.Printf("failed to start containers: %s", err)
		s.T().FailNow()
	}

	s.services = services

	var cfg config.Config
	cfg.Port = 3000
	cfg.Env = "test"
	cfg.PublicBaseURL = "https://shop.example.com"
	cfg.DefaultGateway = domain.GatewayStripe
	cfg.EncryptionKey = TestEncryptionKey
	cfg.DB.DSN = services.DSN
	cfg.DB.MaxOpenConns = 25
	cfg.DB.MaxIdleTime = 2 * time.Minute
	cfg.Redis.URL = services.RedisAddr
	cfg.Redis.MaxOpenConns = 10
	cfg.Redis.MaxIdleConns = 10
	cfg.Redis.MaxIdleTime = 2 * time.Minute
	cfg.Redis.EventTTL = time.Hour
	cfg.Stripe.SecretKey = TestPlatformSecretKey
	cfg.Stripe.PublishableKey = TestPlatformPublishableKey
	cfg.Stripe.WebhookSecret = TestPlatformWebhookSecret
	cfg.Stripe.PaymentMethods = []string{"card", "cashapp"}
	cfg.Notifier.AlertRecipient = "ops@example.com"

	testApp, err := newTestApp(cfg)
	if err != nil {
		log.Printf("cannot initialize app: %s", err)
		s.T().FailNow()
	}

	s.app = testApp
	s.server = httptest.NewServer(testApp.App.Routes())
}

func (s *BaseSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		s.app.Close()
	}
	if s.services != nil {
		for _, err := range s.services.Terminate() {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// SetupTest starts every test from an empty ledger with the catalog seeded.
func (s *BaseSuite) SetupTest() {
	resetState(s.T(), s.app)
	insertService(s.T(), s.app)
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		req, err := prepareRequest(s.Method, s.URL, s.Body, s.Headers)
		require.NoError(t, err)

		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}
