package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	defer rl.Stop()

	clientIP := "192.168.1.1"

	assert.True(t, rl.Allow(clientIP), "first request should be allowed")
	assert.True(t, rl.Allow(clientIP), "second request should be allowed")
	assert.False(t, rl.Allow(clientIP), "third request should be blocked")
	assert.True(t, rl.Allow("192.168.1.2"), "other clients keep their own window")

	rl.mu.Lock()
	rl.visitors[clientIP].lastReset = time.Now().Add(-2 * time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.Allow(clientIP), "request after window reset should be allowed")
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()

	for range 10 {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	handler := RateLimitMiddleware(rl)(okHandler())

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/callback/comgate", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded_for_first", map[string]string{"X-Forwarded-For": "89.185.236.55, 10.0.0.1"}, "10.0.0.2:80", "89.185.236.55"},
		{"real_ip", map[string]string{"X-Real-IP": " 37.188.213.11 "}, "10.0.0.2:80", "37.188.213.11"},
		{"remote_addr", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"ipv6_localhost", nil, "[::1]:12345", "127.0.0.1"},
		{"no_port", nil, "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'none'",
		"Referrer-Policy":           "no-referrer",
	}
	for header, value := range expected {
		assert.Equal(t, value, rr.Header().Get(header), header)
	}
}

func TestIPAllowlistMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		remoteAddr     string
		expectedStatus int
	}{
		{"empty_list_allows_all", nil, "10.0.0.1:1000", http.StatusOK},
		{"allowed_ip", []string{"89.185.236.55", " 37.188.213.11"}, "37.188.213.11:1000", http.StatusOK},
		{"blocked_ip", []string{"89.185.236.55"}, "10.0.0.1:1000", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/callback/comgate", nil)
			req.RemoteAddr = tt.remoteAddr
			rr := httptest.NewRecorder()

			IPAllowlistMiddleware(tt.allowed)(okHandler()).ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestCallbackRequestMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		expectedStatus int
	}{
		{"form", http.MethodPost, "application/x-www-form-urlencoded", "transId=AB12", http.StatusOK},
		{"json", http.MethodPost, "application/json; charset=utf-8", `{"transId":"AB12"}`, http.StatusOK},
		{"no_content_type", http.MethodPost, "", "transId=AB12", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusMethodNotAllowed},
		{"xml", http.MethodPost, "application/xml", "<x/>", http.StatusUnsupportedMediaType},
		{"too_large", http.MethodPost, "application/x-www-form-urlencoded", strings.Repeat("a", MaxCallbackBody+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/callback/comgate", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()

			CallbackRequestMiddleware()(okHandler()).ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestRequestLoggingMiddleware(t *testing.T) {
	log, buf := newBufferedLogger(logger.LevelDebug)
	handler := RequestLoggingMiddleware(log)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/callback/comgate", nil)
	req.RemoteAddr = "89.185.236.55:443"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"msg":"request served"`)
	assert.Contains(t, out, `"path":"/callback/comgate"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"client_ip":"89.185.236.55"`)
}

func TestRequestLoggingMiddleware_ServerError(t *testing.T) {
	log, buf := newBufferedLogger(logger.LevelWarn)
	handler := RequestLoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"msg":"request failed"`)
	assert.Contains(t, buf.String(), `"status":502`)
}
