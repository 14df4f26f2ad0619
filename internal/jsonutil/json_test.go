package jsonutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		ServiceID string `json:"serviceId"`
		Quantity  int    `json:"quantity"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid body", body: `{"serviceId":"svc_1","quantity":2}`},
		{name: "empty body", body: ``, wantErr: "body must not be empty"},
		{name: "syntax error", body: `{"serviceId":}`, wantErr: "badly-formed JSON"},
		{name: "wrong type", body: `{"quantity":"two"}`, wantErr: `incorrect JSON type for field "quantity"`},
		{name: "unknown field", body: `{"price":1}`, wantErr: `unknown key "price"`},
		{name: "two values", body: `{} {}`, wantErr: "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst payload
			err := ReadJSON(w, r, &dst)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, payload{ServiceID: "svc_1", Quantity: 2}, dst)
				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusCreated, map[string]bool{"received": true}, http.Header{"X-Test": []string{"1"}})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("X-Test"))
	assert.Equal(t, "{\"received\":true}\n", w.Body.String())
}
