package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumident/lumident/internal/auth"
)

func TestOperatorKey(t *testing.T) {
	t.Parallel()

	key, err := auth.GenerateOperatorKey()
	if err != nil {
		t.Fatalf("GenerateOperatorKey: %v", err)
	}

	tests := []struct {
		name       string
		keyHash    string
		header     string
		wantStatus int
	}{
		{
			name:       "valid key",
			keyHash:    key.Hash,
			header:     key.Plaintext,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			keyHash:    key.Hash,
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed key",
			keyHash:    key.Hash,
			header:     "not-an-operator-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key",
			keyHash:    key.Hash,
			header:     "opk_a1b2c3_0123456789abcdef0123456789abcdef",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no hash configured",
			keyHash:    "",
			header:     key.Plaintext,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := OperatorKey(OperatorConfig{Logger: testLogger(), KeyHash: tt.keyHash})
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
			if tt.header != "" {
				req.Header.Set("X-Operator-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
