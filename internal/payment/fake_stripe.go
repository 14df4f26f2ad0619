package payment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v82"
)

// FakeStripe is an in-process stand-in for the subset of the Stripe API the
// service uses: payment intent create, retrieve and cancel, and refunds.
type FakeStripe struct {
	mu         sync.Mutex
	server     *httptest.Server
	seq        int
	intents    map[string]*FakePaymentIntent
	idempotent map[string]string
	failCreate *fakeStripeError
	lastKey    string
}

type FakePaymentIntent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       stripe.PaymentIntentStatus
	ClientSecret string
	Description  string
	Metadata     map[string]string
	SecretKey    string
}

type fakeStripeError struct {
	status  int
	code    string
	message string
}

func NewFakeStripe() *FakeStripe {
	f := &FakeStripe{
		intents:    make(map[string]*FakePaymentIntent),
		idempotent: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/payment_intents", f.createPaymentIntent)
	mux.HandleFunc("GET /v1/payment_intents/{id}", f.getPaymentIntent)
	mux.HandleFunc("POST /v1/payment_intents/{id}/cancel", f.cancelPaymentIntent)
	mux.HandleFunc("POST /v1/refunds", f.createRefund)

	f.server = httptest.NewServer(mux)

	return f
}

func (f *FakeStripe) Close() {
	f.server.Close()
}

func (f *FakeStripe) URL() string {
	return f.server.URL
}

// Backends points stripe-go clients at the fake.
func (f *FakeStripe) Backends() *stripe.Backends {
	return stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(f.server.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
}

func (f *FakeStripe) AddPaymentIntent(pi FakePaymentIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pi.ClientSecret == "" {
		pi.ClientSecret = pi.ID + "_secret_fake"
	}

	f.intents[pi.ID] = &pi
}

func (f *FakeStripe) SetStatus(id string, status stripe.PaymentIntentStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pi, ok := f.intents[id]; ok {
		pi.Status = status
	}
}

func (f *FakeStripe) PaymentIntent(id string) (FakePaymentIntent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pi, ok := f.intents[id]
	if !ok {
		return FakePaymentIntent{}, false
	}

	return *pi, true
}

func (f *FakeStripe) PaymentIntentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.intents)
}

// LastSecretKey returns the API key used by the most recent request.
func (f *FakeStripe) LastSecretKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastKey
}

// FailNextCreate makes the next payment intent creation fail with a Stripe
// invalid_request_error carrying the given message.
func (f *FakeStripe) FailNextCreate(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failCreate = &fakeStripeError{status: status, code: "parameter_invalid_empty", message: message}
}

func (f *FakeStripe) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFakeStripeError(w, fakeStripeError{http.StatusBadRequest, "parameter_invalid", err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastKey = bearerKey(r)

	if f.failCreate != nil {
		failure := *f.failCreate
		f.failCreate = nil
		writeFakeStripeError(w, failure)
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		if id, ok := f.idempotent[key]; ok {
			writeFakePaymentIntent(w, f.intents[id])
			return
		}
	}

	amount, err := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		writeFakeStripeError(w, fakeStripeError{http.StatusBadRequest, "parameter_invalid_integer", "Invalid integer: amount"})
		return
	}

	f.seq++
	id := fmt.Sprintf("pi_fake_%d", f.seq)

	pi := &FakePaymentIntent{
		ID:           id,
		Amount:       amount,
		Currency:     r.PostForm.Get("currency"),
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		ClientSecret: id + "_secret_fake",
		Description:  r.PostForm.Get("description"),
		Metadata:     make(map[string]string),
		SecretKey:    f.lastKey,
	}

	for key, values := range r.PostForm {
		if name, ok := strings.CutPrefix(key, "metadata["); ok && len(values) > 0 {
			pi.Metadata[strings.TrimSuffix(name, "]")] = values[0]
		}
	}

	f.intents[id] = pi
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		f.idempotent[key] = id
	}

	writeFakePaymentIntent(w, pi)
}

func (f *FakeStripe) getPaymentIntent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastKey = bearerKey(r)

	pi, ok := f.intents[r.PathValue("id")]
	if !ok {
		writeFakeStripeError(w, fakeStripeError{http.StatusNotFound, "resource_missing", "No such payment_intent"})
		return
	}

	if secret := r.URL.Query().Get("client_secret"); secret != "" && secret != pi.ClientSecret {
		writeFakeStripeError(w, fakeStripeError{http.StatusBadRequest, "payment_intent_invalid_parameter", "client_secret does not match"})
		return
	}

	writeFakePaymentIntent(w, pi)
}

func (f *FakeStripe) cancelPaymentIntent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastKey = bearerKey(r)

	pi, ok := f.intents[r.PathValue("id")]
	if !ok {
		writeFakeStripeError(w, fakeStripeError{http.StatusNotFound, "resource_missing", "No such payment_intent"})
		return
	}

	pi.Status = stripe.PaymentIntentStatusCanceled
	writeFakePaymentIntent(w, pi)
}

func (f *FakeStripe) createRefund(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFakeStripeError(w, fakeStripeError{http.StatusBadRequest, "parameter_invalid", err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastKey = bearerKey(r)

	pi, ok := f.intents[r.PostForm.Get("payment_intent")]
	if !ok {
		writeFakeStripeError(w, fakeStripeError{http.StatusNotFound, "resource_missing", "No such payment_intent"})
		return
	}

	amount := pi.Amount
	if raw := r.PostForm.Get("amount"); raw != "" {
		amount, _ = strconv.ParseInt(raw, 10, 64)
	}

	f.seq++

	writeFakeJSON(w, http.StatusOK, map[string]any{
		"id":             fmt.Sprintf("re_fake_%d", f.seq),
		"object":         "refund",
		"amount":         amount,
		"currency":       pi.Currency,
		"payment_intent": pi.ID,
		"status":         "succeeded",
	})
}

func bearerKey(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeFakePaymentIntent(w http.ResponseWriter, pi *FakePaymentIntent) {
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"id":            pi.ID,
		"object":        "payment_intent",
		"amount":        pi.Amount,
		"currency":      pi.Currency,
		"status":        pi.Status,
		"client_secret": pi.ClientSecret,
		"description":   pi.Description,
		"metadata":      pi.Metadata,
	})
}

func writeFakeStripeError(w http.ResponseWriter, e fakeStripeError) {
	writeFakeJSON(w, e.status, map[string]any{
		"error": map[string]any{
			"type":    "invalid_request_error",
			"code":    e.code,
			"message": e.message,
		},
	})
}

func writeFakeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
