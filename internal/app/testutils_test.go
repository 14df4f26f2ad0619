package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/checkout"
	"github.com/metinatakli/storefront-payments/internal/config"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/metinatakli/storefront-payments/internal/mocks"
	"github.com/metinatakli/storefront-payments/internal/payment"
	"github.com/metinatakli/storefront-payments/internal/poller"
	"github.com/stretchr/testify/mock"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateServicePayment(
	ctx context.Context,
	input checkout.ServicePaymentInput) (*checkout.PaymentSession, error) {

	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentSession), args.Error(1)
}

func (m *MockCheckoutService) CreateIntegratorPayment(
	ctx context.Context,
	provider *domain.Provider,
	input checkout.IntegratorPaymentInput) (*checkout.PaymentSession, error) {

	args := m.Called(ctx, provider, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentSession), args.Error(1)
}

func (m *MockCheckoutService) Resolve(ctx context.Context, token string) (*checkout.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockCheckoutService) Refund(
	ctx context.Context,
	provider *domain.Provider,
	input checkout.RefundInput) (*domain.RefundResult, error) {

	args := m.Called(ctx, provider, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) HandleDelivery(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Poll(ctx context.Context, in poller.Input, interval time.Duration, maxAttempts int) (poller.Result, error) {
	args := m.Called(ctx, in, interval, maxAttempts)
	return args.Get(0).(poller.Result), args.Error(1)
}

type stubCatalog struct {
	entries     []payment.RegistryEntry
	defaultName domain.GatewayName
}

func (c stubCatalog) List() []payment.RegistryEntry {
	return c.entries
}

func (c stubCatalog) DefaultName() domain.GatewayName {
	return c.defaultName
}

func newTestApplication(opts ...func(*Deps)) *Application {
	deps := Deps{
		Config: config.Config{
			Env:           "test",
			PublicBaseURL: "https://shop.example.com",
		},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.New(),
		ServiceRepo:  &mocks.MockServiceRepo{},
		ProviderRepo: &mocks.MockProviderRepo{},
		Gateways:     stubCatalog{defaultName: domain.GatewayStripe},
		Checkout:     &MockCheckoutService{},
		Reconciler:   &MockReconciler{},
		Verifier:     &MockVerifier{},
	}

	for _, opt := range opts {
		opt(&deps)
	}

	return NewApp(deps)
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Field+" "+vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response %v", tt.wantErrMessage, errorSet)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Error != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Error, tt.wantErrMessage)
		}
	}
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return v
}

func ptr[T any](v T) *T {
	return &v
}
