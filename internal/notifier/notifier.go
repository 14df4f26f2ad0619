// Package notifier delivers integrator payment notifications in the
// background with exponential backoff.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/mailer"
	"github.com/metinatakli/storefront-payments/internal/metrics"
)

const (
	HeaderWebhookType = "X-Webhook-Type"
	WebhookType       = "payment_notification"

	alertTemplate = "notification_failed.tmpl"
)

type Config struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	// AlertRecipient receives an email when a notification is given up on.
	// Empty disables alerts.
	AlertRecipient string
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		BaseDelay:      time.Second,
		AttemptTimeout: 5 * time.Second,
	}
}

// Notifier implements domain.Notifier. Notify returns at once; delivery runs
// in a goroutine tracked so shutdown can wait for it.
type Notifier struct {
	client  *http.Client
	config  Config
	mailer  mailer.Mailer
	metrics *metrics.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func New(client *http.Client, config Config, m mailer.Mailer, metrics *metrics.Metrics, logger *slog.Logger) *Notifier {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = defaults.BaseDelay
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if client == nil {
		client = &http.Client{}
	}

	return &Notifier{
		client:  client,
		config:  config,
		mailer:  m,
		metrics: metrics,
		logger:  logger,
	}
}

func (n *Notifier) Notify(notification domain.Notification) {
	n.wg.Add(1)

	go func() {
		defer n.wg.Done()
		n.Deliver(context.Background(), notification)
	}()
}

// Wait blocks until every notification started so far has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Deliver posts the notification, retrying up to MaxAttempts times with
// delays of BaseDelay, 2x, 4x and so on between attempts. It reports whether
// any attempt succeeded.
func (n *Notifier) Deliver(ctx context.Context, notification domain.Notification) bool {
	logger := n.logger.With(
		"order_id", notification.OrderID,
		"event", notification.Event,
		"url", notification.URL)

	body, err := json.Marshal(notification)
	if err != nil {
		logger.Error("failed to encode integrator notification", "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, n.budget())
	defer cancel()

	attempts := 0

	operation := func() (struct{}, error) {
		attempts++
		return struct{}{}, n.post(ctx, notification.URL, body)
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(n.newBackOff()),
		backoff.WithMaxTries(uint(n.config.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("integrator notification attempt failed",
				"attempt", attempts,
				"retry_in", next,
				"error", err)
		}))

	if err == nil {
		logger.Info("integrator notified", "attempts", attempts)
		n.metrics.Notifications.WithLabelValues("delivered").Inc()
		return true
	}

	// Nothing records the failure durably, the log line and the alert are
	// all that is left of it.
	logger.Error("integrator notification unresolved",
		"attempts", attempts,
		"error", err)
	n.metrics.Notifications.WithLabelValues("exhausted").Inc()
	n.alert(logger, notification, attempts, err)

	return false
}

func (n *Notifier) newBackOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     n.config.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         n.config.BaseDelay << uint(n.config.MaxAttempts),
	}
}

// budget covers every attempt timing out plus every backoff delay.
func (n *Notifier) budget() time.Duration {
	delays := n.config.BaseDelay * time.Duration((1<<uint(n.config.MaxAttempts-1))-1)
	return delays + time.Duration(n.config.MaxAttempts)*n.config.AttemptTimeout
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, n.config.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookType, WebhookType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (n *Notifier) alert(logger *slog.Logger, notification domain.Notification, attempts int, cause error) {
	if n.mailer == nil || n.config.AlertRecipient == "" {
		return
	}

	data := map[string]any{
		"OrderID":      notification.OrderID,
		"Event":        notification.Event,
		"ProviderName": notification.ProviderName,
		"URL":          notification.URL,
		"Attempts":     attempts,
		"Error":        cause.Error(),
	}

	err := n.mailer.Send(n.config.AlertRecipient, alertTemplate, data)
	if err != nil {
		logger.Error("failed to send notification alert", "error", err)
	}
}
