package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/vault"
)

type Config struct {
	Port             int
	Env              string
	PublicBaseURL    string
	CorsOrigins      []string
	OtelCollectorUrl string

	DB struct {
		DSN          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
	}

	Redis struct {
		URL          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  time.Duration
		EventTTL     time.Duration
	}

	Stripe struct {
		SecretKey      string
		PublishableKey string
		WebhookSecret  string
		PaymentMethods []string
	}

	DefaultGateway domain.GatewayName
	EncryptionKey  string

	Notifier struct {
		MaxAttempts    int
		BaseDelay      time.Duration
		AttemptTimeout time.Duration
		AlertRecipient string
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		Sender   string
	}

	Kafka struct {
		Brokers []string
		Topic   string
	}

	RateLimit struct {
		Enabled bool
		RPS     float64
		Burst   int
	}

	DisplayVersion bool
}

var ErrMissingEncryptionKey = errors.New("an encryption key is required (-encryption-key or ENCRYPTION_KEY)")

// Load parses args into a Config. Environment variables provide the flag
// defaults so that container deployments need no command line.
func Load(args []string) (Config, error) {
	var (
		cfg            Config
		corsOrigins    string
		paymentMethods string
		kafkaBrokers   string
		defaultGateway string
	)

	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", env("APP_ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.PublicBaseURL, "public-base-url", env("PUBLIC_BASE_URL", "http://localhost:3000"), "Public URL of the storefront, used for checkout links")
	fs.StringVar(&corsOrigins, "cors-trusted-origins", env("CORS_TRUSTED_ORIGINS", ""), "Trusted CORS origins (space separated)")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", env("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", env("DATABASE_URL", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", env("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")
	fs.DurationVar(&cfg.Redis.EventTTL, "redis-event-ttl", 72*time.Hour, "How long processed webhook event ids are remembered")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", env("STRIPE_SECRET_KEY", ""), "Stripe secret key")
	fs.StringVar(&cfg.Stripe.PublishableKey, "stripe-publishable-key", env("STRIPE_PUBLISHABLE_KEY", ""), "Stripe publishable key")
	fs.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", env("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	fs.StringVar(&paymentMethods, "stripe-payment-methods", env("STRIPE_PAYMENT_METHODS", "card cashapp"), "Stripe payment method types (space separated)")

	fs.StringVar(&defaultGateway, "default-gateway", env("PAYMENT_GATEWAY", string(domain.GatewayStripe)), "Default payment gateway")
	fs.StringVar(&cfg.EncryptionKey, "encryption-key", env("ENCRYPTION_KEY", ""), "Master secret for integrator credential encryption")

	fs.IntVar(&cfg.Notifier.MaxAttempts, "notifier-max-attempts", 5, "Integrator notification delivery attempts")
	fs.DurationVar(&cfg.Notifier.BaseDelay, "notifier-base-delay", time.Second, "Delay before the second notification attempt, doubled for each further attempt")
	fs.DurationVar(&cfg.Notifier.AttemptTimeout, "notifier-attempt-timeout", 5*time.Second, "Timeout of a single notification attempt")
	fs.StringVar(&cfg.Notifier.AlertRecipient, "notifier-alert-recipient", env("NOTIFIER_ALERT_EMAIL", ""), "Email address alerted when a notification is given up on")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", env("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", env("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", env("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", env("SMTP_SENDER", "Storefront Payments <no-reply@example.com>"), "SMTP sender")

	fs.StringVar(&kafkaBrokers, "kafka-brokers", env("KAFKA_BROKERS", ""), "Kafka brokers for order status events (comma separated, empty disables)")
	fs.StringVar(&cfg.Kafka.Topic, "kafka-topic", env("KAFKA_TOPIC", "orders.status-changed"), "Kafka topic for order status events")

	fs.BoolVar(&cfg.RateLimit.Enabled, "limiter-enabled", true, "Enable rate limiting of checkout lookups")
	fs.Float64Var(&cfg.RateLimit.RPS, "limiter-rps", 2, "Rate limiter maximum requests per second per client")
	fs.IntVar(&cfg.RateLimit.Burst, "limiter-burst", 10, "Rate limiter maximum burst per client")

	fs.BoolVar(&cfg.DisplayVersion, "version", false, "Display version and exit")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, err
	}

	cfg.CorsOrigins = strings.Fields(corsOrigins)
	cfg.Stripe.PaymentMethods = strings.Fields(paymentMethods)
	cfg.Kafka.Brokers = splitList(kafkaBrokers)
	cfg.DefaultGateway = domain.GatewayName(defaultGateway)

	if cfg.DisplayVersion {
		return cfg, nil
	}

	if !cfg.DefaultGateway.Valid() {
		return Config{}, domain.UnknownGatewayError(cfg.DefaultGateway)
	}

	if cfg.Stripe.SecretKey != "" && cfg.Stripe.PublishableKey != "" &&
		vault.KeyMode(cfg.Stripe.SecretKey) != vault.KeyMode(cfg.Stripe.PublishableKey) {
		return Config{}, fmt.Errorf("platform stripe keys: %w", domain.ErrCredentialModeMismatch)
	}

	if cfg.EncryptionKey == "" {
		return Config{}, ErrMissingEncryptionKey
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
