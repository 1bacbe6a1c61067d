// Package gocomgate is a client and HTTP service for the Comgate payment gateway.
//
// The gateway speaks form-encoded POSTs with flat camelCase keys and answers
// in form, JSON, zip or plain redirects. gocomgate translates between that wire
// format and a nested, snake_case domain model so that applications never see
// Comgate field names.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│    gocomgate    │◄──►│    Comgate      │
//	│  (JSON API)     │    │   (client)      │    │   (v1.0 API)    │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// One gateway call runs through a fixed pipeline:
//
//	domain params ──► payload builder ──► transport ──► decoder ──► normalizer ──► result
//
// # Packages
//
//   - provider: shared domain types (Params, Path), the HTTP transport and call journal contracts
//   - provider/comgate: the field mapping table, payload builder, decoder, normalizer and gateway
//   - handler: HTTP handlers for payments, callbacks, journal queries and health
//   - router: route wiring with authentication, callback allowlist and rate limiting
//   - infra: configuration, zap logging, Prometheus metrics, SQLite and OpenSearch journals
//
// # Quick Start
//
//	gateway := comgate.NewProvider()
//	err := gateway.Initialize(map[string]string{
//	    "merchantId": "123456",
//	    "secret":     "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y",
//	})
//
//	result, err := gateway.StartTransaction(ctx, provider.Params{
//	    "payment": provider.Params{
//	        "currency":        "CZK",
//	        "amount_in_cents": 100,
//	        "label":           "Order #2023-1",
//	        "reference_id":    "#2023-1",
//	        "method":          "ALL",
//	    },
//	    "payer": provider.Params{"email": "a@b.com"},
//	})
//	if err != nil {
//	    // missing fields, unsupported response body or gateway not initialized
//	}
//	if result.Redirect() {
//	    // send the payer to result.RedirectTo
//	}
//
// Failures of the gateway itself are not Go errors: the result carries
// OutcomeConnectionError or OutcomeAPIError and the error list under the
// connection or api key.
//
// # Running the Service
//
//	COMGATE_MERCHANT_ID=123456 COMGATE_SECRET=... API_KEY=... go run ./cmd
//
// Environment variables:
//
//	APP_PORT                 listen port (9999)
//	ENVIRONMENT              development, staging, production or test
//	LOGGING_LEVEL            debug, info, warn, error or fatal
//	API_KEY                  bearer token of the /v1 API
//	COMGATE_MERCHANT_ID      e-shop identifier
//	COMGATE_SECRET           e-shop secret
//	COMGATE_BASE_URL         API root (https://payments.comgate.cz/v1.0)
//	COMGATE_TEST_CALLS       mark every call as a test payment
//	COMGATE_TIMEOUT_SECONDS  per call timeout (30)
//	COMGATE_PROXY_*          optional outbound proxy
//	JOURNAL_DRIVER           none, sqlite or opensearch
//	SQLITE_PATH              journal database file
//	OPENSEARCH_*             journal cluster and index
//	CALLBACK_ALLOWED_IPS     comma separated gateway addresses
//	RATE_LIMIT_PER_MINUTE    callback requests per client IP
//	ALLOWED_ORIGINS          CORS origins
//	METRICS_NAMESPACE        Prometheus namespace
package gocomgate
