package middle

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		apiKey         string
		header         string
		expectedStatus int
	}{
		{"valid key", "sk-test-4f1c", "Bearer sk-test-4f1c", http.StatusOK},
		{"wrong key", "sk-test-4f1c", "Bearer sk-test-0000", http.StatusUnauthorized},
		{"key prefix", "sk-test-4f1c", "Bearer sk-test", http.StatusUnauthorized},
		{"missing header", "sk-test-4f1c", "", http.StatusUnauthorized},
		{"basic scheme", "sk-test-4f1c", "Basic c2stdGVzdC00ZjFj", http.StatusUnauthorized},
		{"empty bearer", "sk-test-4f1c", "Bearer ", http.StatusUnauthorized},
		{"not configured", "", "Bearer anything", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tt.apiKey)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/v1/payments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}
