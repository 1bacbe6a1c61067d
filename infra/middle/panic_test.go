package middle

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(level logger.LogLevel) (*logger.SystemLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.NewSystemLogger(logger.SystemLoggerConfig{
		MinLevel:    level,
		Service:     "test",
		Environment: "test",
		Output:      zapcore.AddSync(buf),
	}), buf
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		shouldPanic    bool
	}{
		{
			name: "no_panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("success"))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "panic_with_string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			},
			expectedStatus: http.StatusInternalServerError,
			shouldPanic:    true,
		},
		{
			name: "panic_with_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var params map[string]any
				params["transId"] = "AB12"
			},
			expectedStatus: http.StatusInternalServerError,
			shouldPanic:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferedLogger(logger.LevelInfo)
			handler := PanicRecoveryMiddleware(log)(tt.handler)

			req := httptest.NewRequest(http.MethodPost, "/callback/comgate", nil)
			req.Header.Set("X-Request-ID", "req-1")
			rr := httptest.NewRecorder()

			assert.NotPanics(t, func() { handler.ServeHTTP(rr, req) })
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if !tt.shouldPanic {
				assert.Equal(t, "success", rr.Body.String())
				assert.Empty(t, buf.String())
				return
			}

			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "Internal server error", resp.Message)
			assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))

			assert.Contains(t, buf.String(), `"msg":"Panic recovered"`)
			assert.Contains(t, buf.String(), `"request_id":"req-1"`)
			assert.Contains(t, buf.String(), `"stack":`)
		})
	}
}

func TestPanicRecoveryMiddleware_UsesChiRequestID(t *testing.T) {
	log, buf := newBufferedLogger(logger.LevelError)
	handler := middleware.RequestID(PanicRecoveryMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, buf.String(), `"request_id":"unknown"`)
	assert.True(t, strings.Contains(buf.String(), `"request_id":"`))
}
