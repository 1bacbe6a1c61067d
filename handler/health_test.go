package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mstgnz/gocomgate/provider"
)

type fakeGatewayStatus bool

func (f fakeGatewayStatus) Initialized() bool { return bool(f) }

// pingJournal is a journal with a backend to ping
type pingJournal struct {
	err error
}

func (p *pingJournal) Record(ctx context.Context, record provider.CallRecord) error { return nil }
func (p *pingJournal) Ping(ctx context.Context) error                                { return p.err }

// recordOnlyJournal has no Ping
type recordOnlyJournal struct{}

func (recordOnlyJournal) Record(ctx context.Context, record provider.CallRecord) error { return nil }

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(fakeGatewayStatus(true), nil, "test", "1.0.0")
	if handler == nil {
		t.Fatal("NewHealthHandler should not return nil")
	}

	if handler.startTime.IsZero() {
		t.Error("HealthHandler should have start time set")
	}
}

func TestHealthHandler_CheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		gateway        GatewayStatus
		journal        provider.CallJournal
		expectedCode   int
		expectedStatus string
		journalStatus  string
	}{
		{"healthy without journal", fakeGatewayStatus(true), nil, http.StatusOK, "healthy", "not_configured"},
		{"healthy with journal", fakeGatewayStatus(true), &pingJournal{}, http.StatusOK, "healthy", "healthy"},
		{"journal without ping", fakeGatewayStatus(true), recordOnlyJournal{}, http.StatusOK, "healthy", "healthy"},
		{"journal down", fakeGatewayStatus(true), &pingJournal{err: errors.New("database is locked")}, http.StatusOK, "degraded", "unhealthy"},
		{"gateway not initialized", fakeGatewayStatus(false), nil, http.StatusServiceUnavailable, "unhealthy", "not_configured"},
		{"no gateway", nil, nil, http.StatusServiceUnavailable, "unhealthy", "not_configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.gateway, tt.journal, "test", "1.0.0")
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.CheckHealth(w, req)

			if w.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected content type application/json, got %s", ct)
			}

			var resp struct {
				Success bool         `json:"success"`
				Data    HealthStatus `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Data.Status != tt.expectedStatus {
				t.Errorf("Expected health %q, got %q", tt.expectedStatus, resp.Data.Status)
			}
			if resp.Data.Journal.Status != tt.journalStatus {
				t.Errorf("Expected journal %q, got %q", tt.journalStatus, resp.Data.Journal.Status)
			}
			if resp.Success != (tt.expectedCode == http.StatusOK) {
				t.Errorf("Unexpected success flag %v", resp.Success)
			}
			if resp.Data.Environment != "test" || resp.Data.Version != "1.0.0" {
				t.Errorf("Unexpected environment/version %q/%q", resp.Data.Environment, resp.Data.Version)
			}
			if resp.Data.System == nil || resp.Data.System.GoRoutines == 0 {
				t.Error("Expected system stats")
			}
		})
	}
}

func TestHealthHandler_JournalError(t *testing.T) {
	handler := NewHealthHandler(fakeGatewayStatus(true), &pingJournal{err: errors.New("connection refused")}, "test", "1.0.0")

	health := handler.checkJournal(context.Background())
	if health.Healthy {
		t.Error("Journal should be reported unhealthy")
	}
	if health.Error != "connection refused" {
		t.Errorf("Unexpected error %q", health.Error)
	}
	if health.ResponseTime == "" {
		t.Error("Response time should be measured")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
			}
		})
	}
}

func BenchmarkHealthCheck(b *testing.B) {
	handler := NewHealthHandler(fakeGatewayStatus(true), nil, "test", "1.0.0")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	for b.Loop() {
		w := httptest.NewRecorder()
		handler.CheckHealth(w, req)
	}
}
