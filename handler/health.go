package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider"
)

const journalPingTimeout = 5 * time.Second

// GatewayStatus reports whether the gateway client is ready to send calls
type GatewayStatus interface {
	Initialized() bool
}

// Pinger is implemented by journals that can check their backend
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	gateway     GatewayStatus
	journal     provider.CallJournal
	environment string
	version     string
	startTime   time.Time
}

// HealthStatus represents overall service health
type HealthStatus struct {
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Uptime      string         `json:"uptime"`
	Environment string         `json:"environment"`
	Gateway     *ServiceHealth `json:"gateway"`
	Journal     *ServiceHealth `json:"journal"`
	System      *SystemHealth  `json:"system"`
}

// ServiceHealth represents the health of one dependency
type ServiceHealth struct {
	Status       string `json:"status"`
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	TotalAlloc string `json:"total_alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler. journal may be nil.
func NewHealthHandler(gateway GatewayStatus, journal provider.CallJournal, environment, version string) *HealthHandler {
	return &HealthHandler{
		gateway:     gateway,
		journal:     journal,
		environment: environment,
		version:     version,
		startTime:   time.Now(),
	}
}

// CheckHealth reports gateway readiness, journal reachability and process stats.
// An uninitialized gateway answers 503, a failing journal only degrades the status.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Gateway:     h.checkGateway(),
		Journal:     h.checkJournal(r.Context()),
		System:      checkSystem(),
	}

	switch {
	case !health.Gateway.Healthy:
		health.Status = "unhealthy"
	case !health.Journal.Healthy:
		health.Status = "degraded"
	default:
		health.Status = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkGateway() *ServiceHealth {
	if h.gateway == nil || !h.gateway.Initialized() {
		return &ServiceHealth{Status: "not_initialized", Error: "gateway credentials are not loaded"}
	}
	return &ServiceHealth{Status: "healthy", Healthy: true}
}

func (h *HealthHandler) checkJournal(ctx context.Context) *ServiceHealth {
	if h.journal == nil {
		return &ServiceHealth{Status: "not_configured", Healthy: true}
	}

	pinger, ok := h.journal.(Pinger)
	if !ok {
		return &ServiceHealth{Status: "healthy", Healthy: true}
	}

	ctx, cancel := context.WithTimeout(ctx, journalPingTimeout)
	defer cancel()

	start := time.Now()
	err := pinger.Ping(ctx)
	health := &ServiceHealth{ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
		return health
	}

	health.Status = "healthy"
	health.Healthy = true
	return health
}

func checkSystem() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		TotalAlloc: formatBytes(memStats.TotalAlloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
