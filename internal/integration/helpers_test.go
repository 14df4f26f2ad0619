package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/app"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"golang.org/x/crypto/bcrypt"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

func jsonBody(t testing.TB, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody[T any](t testing.TB, body io.Reader) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(body).Decode(&v))
	return v
}

func resetState(t testing.TB, testApp *TestApp) {
	t.Helper()

	ctx := context.Background()

	testApp.Notifier.Wait()

	_, err := testApp.DB.Exec(ctx, "TRUNCATE orders, providers, services CASCADE")
	require.NoError(t, err)

	require.NoError(t, testApp.Redis.FlushDB(ctx).Err())

	testApp.Integrator.Reset()
	testApp.Mailer.Reset()
}

func insertService(t testing.TB, testApp *TestApp) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		INSERT INTO services (id, slug, title, description, price, features)
		VALUES ($1, $2, $3, 'A full review of your storefront', $4, ARRAY['Performance', 'Accessibility'])
	`, TestServiceID, TestServiceSlug, TestServiceTitle, TestServicePrice)
	require.NoError(t, err)
}

// insertProvider registers the test integrator. With ownAccount the
// integrator brings its own processor credentials, stored encrypted.
func insertProvider(t testing.TB, testApp *TestApp, ownAccount bool) *domain.Provider {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestProviderSecret), bcrypt.MinCost)
	require.NoError(t, err)

	webhookURL := testApp.Integrator.URL()
	successURL := TestProviderSuccessURL
	cancelURL := TestProviderCancelURL

	provider := &domain.Provider{
		ID:                 uuid.New(),
		Name:               TestProviderName,
		Slug:               TestProviderSlug,
		APIKeyHash:         hash,
		WebhookURL:         &webhookURL,
		SuccessRedirectURL: &successURL,
		CancelRedirectURL:  &cancelURL,
	}

	if ownAccount {
		provider.StripeSecretKey, err = testApp.Vault.Encrypt(TestProviderSecretKey)
		require.NoError(t, err)
		provider.StripeWebhookSecret, err = testApp.Vault.Encrypt(TestProviderWebhookSecret)
		require.NoError(t, err)
		provider.StripePublishableKey = TestProviderPublishableKey
	}

	err = repository.NewPostgresProviderRepository(testApp.DB).Create(context.Background(), provider)
	require.NoError(t, err)

	return provider
}

func orderByToken(t testing.TB, testApp *TestApp, token string) *domain.Order {
	t.Helper()

	order, err := repository.NewPostgresOrderRepository(testApp.DB).GetByCheckoutToken(context.Background(), token)
	require.NoError(t, err)
	return order
}

func orderCount(t testing.TB, testApp *TestApp) int {
	t.Helper()

	var n int
	err := testApp.DB.QueryRow(context.Background(), "SELECT count(*) FROM orders").Scan(&n)
	require.NoError(t, err)
	return n
}

func paymentIntentEvent(eventID, eventType, paymentIntentID string, amount int64, metadata map[string]string) string {
	if metadata == nil {
		metadata = map[string]string{}
	}

	object, _ := json.Marshal(map[string]any{
		"id":       paymentIntentID,
		"object":   "payment_intent",
		"amount":   amount,
		"currency": "usd",
		"metadata": metadata,
	})

	return fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, eventID, eventType, object)
}

func disputeEvent(eventID, eventType, paymentIntentID, status string, amount int64) string {
	return fmt.Sprintf(
		`{"id":%q,"object":"event","type":%q,"data":{"object":`+
			`{"id":"dp_1","object":"dispute","amount":%d,"status":%q,"reason":"fraudulent","payment_intent":%q}}}`,
		eventID, eventType, amount, status, paymentIntentID)
}

func chargeRefundedEvent(eventID, paymentIntentID string, amount int64) string {
	return fmt.Sprintf(
		`{"id":%q,"object":"event","type":"charge.refunded","data":{"object":`+
			`{"id":"ch_1","object":"charge","amount":%d,"amount_refunded":%d,"refunded":true,"payment_intent":%q}}}`,
		eventID, amount, amount, paymentIntentID)
}

// deliver posts a webhook delivery signed with secret, the way the
// processor does.
func deliver(t testing.TB, testApp *TestApp, payload, secret string) *httptest.ResponseRecorder {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set(app.HeaderStripeSignature, signed.Header)

	rec := httptest.NewRecorder()
	testApp.App.Routes().ServeHTTP(rec, req)

	return rec
}

func newRecorder(testApp *TestApp, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	testApp.App.Routes().ServeHTTP(rec, req)
	return rec
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
