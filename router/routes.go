package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/gocomgate/handler"
	"github.com/mstgnz/gocomgate/infra/config"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/infra/middle"
	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider"
	v1 "github.com/mstgnz/gocomgate/router/v1"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Gateway is everything the routes need from the Comgate client
type Gateway interface {
	handler.PaymentGateway
	handler.CallbackVerifier
	handler.GatewayStatus
}

// Deps are the services the routes are built on. Journal, Observer,
// Listener and Metrics may be nil.
type Deps struct {
	Config   *config.AppConfig
	Gateway  Gateway
	Journal  provider.CallJournal
	Observer handler.CallbackObserver
	Listener handler.PaymentListener
	Metrics  http.Handler
	Validate *validator.Validate
	Log      *logger.SystemLogger
	Version  string
}

// Routes registers health, metrics, the gateway callback and the /v1 API on r.
// The returned func stops the callback rate limiter.
func Routes(r chi.Router, deps Deps) func() {
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.Log == nil {
		deps.Log = logger.GetGlobalLogger()
	}

	health := handler.NewHealthHandler(deps.Gateway, deps.Journal, deps.Config.Environment, deps.Version)
	r.Get("/health", health.CheckHealth)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// Gateway notifications, authenticated by merchant credentials in the body
	limiter := middle.NewRateLimiter(deps.Config.RateLimit, time.Minute)
	callbacks := handler.NewCallbackHandler(deps.Gateway, deps.Observer, deps.Listener, deps.Log)
	r.Route("/callback", func(r chi.Router) {
		r.Use(middle.IPAllowlistMiddleware(deps.Config.CallbackIPs))
		r.Use(middle.RateLimitMiddleware(limiter))
		r.Use(middle.CallbackRequestMiddleware())
		r.Handle("/comgate", otelhttp.NewHandler(http.HandlerFunc(callbacks.HandleCallback), "comgate.callback"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.AuthMiddleware(deps.Config.APIKey))

		v1.Routes(r,
			handler.NewPaymentHandler(deps.Gateway, deps.Validate),
			handler.NewJournalHandler(deps.Journal),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})

	return limiter.Stop
}
