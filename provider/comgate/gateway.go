package comgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/gocomgate/infra/config"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/provider"
)

const (
	gatewayName = "comgate"

	// API URLs
	apiBaseURL = config.DefaultBaseURL

	// API Endpoints
	endpointCreate         = "create"
	endpointRecurring      = "recurring"
	endpointCapturePreauth = "capturePreauth"
	endpointCancelPreauth  = "cancelPreauth"
	endpointRefund         = "refund"
	endpointCancel         = "cancel"
	endpointStatus         = "status"
	endpointMethods        = "methods"
	endpointTransferList   = "transferList"
	endpointCSVDownload    = "csvDownload"

	transferDateLayout = "2006-01-02"
)

var ErrNotInitialized = errors.New("comgate: gateway is not initialized")

// Gateway is the Comgate payment gateway client
type Gateway struct {
	merchantID string
	secret     string
	baseURL    string
	testCalls  bool

	table     *Table
	builder   *Builder
	transport provider.Transport
	journal   provider.CallJournal
	observer  provider.CallObserver
	log       *logger.SystemLogger
}

// Option configures a Gateway
type Option func(*Gateway)

// WithTransport replaces the HTTP transport built by Initialize
func WithTransport(t provider.Transport) Option {
	return func(g *Gateway) { g.transport = t }
}

// WithJournal records every call in j
func WithJournal(j provider.CallJournal) Option {
	return func(g *Gateway) { g.journal = j }
}

// WithObserver reports every call outcome to o
func WithObserver(o provider.CallObserver) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithLogger replaces the global logger
func WithLogger(l *logger.SystemLogger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithTable replaces the default mapping table
func WithTable(t *Table) Option {
	return func(g *Gateway) { g.table = t }
}

// NewProvider creates an uninitialized Comgate gateway
func NewProvider(opts ...Option) *Gateway {
	g := &Gateway{table: DefaultTable}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.GetGlobalLogger()
	}
	return g
}

// New creates a gateway from validated environment configuration
func New(conf *config.GatewayConfig, opts ...Option) (*Gateway, error) {
	g := NewProvider(opts...)
	if err := g.Initialize(conf.ToMap()); err != nil {
		return nil, err
	}
	return g, nil
}

// GetRequiredConfig returns the configuration fields required for Comgate
func (g *Gateway) GetRequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "merchantId",
			Required:    true,
			Type:        "string",
			Description: "Comgate e-shop identifier",
			Example:     "123456",
			Pattern:     `^[0-9]+$`,
		},
		{
			Key:         "secret",
			Required:    true,
			Type:        "string",
			Description: "Comgate e-shop password used in every request",
			Example:     "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y",
			MinLength:   8,
			MaxLength:   64,
		},
		{
			Key:         "baseURL",
			Required:    false,
			Type:        "url",
			Description: "Gateway API base URL",
			Example:     apiBaseURL,
		},
		{
			Key:         "testCalls",
			Required:    false,
			Type:        "boolean",
			Description: "Mark every request as a test payment",
			Example:     "false",
		},
		{
			Key:         "timeoutSeconds",
			Required:    false,
			Type:        "number",
			Description: "HTTP timeout in seconds",
			Example:     "30",
		},
		{
			Key:         "proxyHost",
			Required:    false,
			Type:        "string",
			Description: "Forward proxy host",
			Example:     "proxy.local",
		},
		{
			Key:         "proxyPort",
			Required:    false,
			Type:        "number",
			Description: "Forward proxy port",
			Example:     "3128",
		},
		{
			Key:         "proxyUser",
			Required:    false,
			Type:        "string",
			Description: "Forward proxy user",
		},
		{
			Key:         "proxyPassword",
			Required:    false,
			Type:        "string",
			Description: "Forward proxy password",
		},
	}
}

// ValidateConfig validates the provided configuration against Comgate requirements
func (g *Gateway) ValidateConfig(conf map[string]string) error {
	return provider.ValidateConfigFields(gatewayName, conf, g.GetRequiredConfig())
}

// Initialize sets up the gateway with merchant credentials and builds the HTTP transport
func (g *Gateway) Initialize(conf map[string]string) error {
	if err := g.ValidateConfig(conf); err != nil {
		return err
	}

	g.merchantID = conf["merchantId"]
	g.secret = conf["secret"]
	g.testCalls = conf["testCalls"] == "true"

	g.baseURL = conf["baseURL"]
	if g.baseURL == "" {
		g.baseURL = apiBaseURL
	}

	if g.table == nil {
		g.table = DefaultTable
	}
	g.builder = NewBuilder(g.table, g.merchantID, g.secret)

	if g.transport == nil {
		timeout := 30 * time.Second
		if seconds, err := strconv.Atoi(conf["timeoutSeconds"]); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}

		var proxy *provider.ProxyConfig
		if conf["proxyHost"] != "" {
			port, _ := strconv.Atoi(conf["proxyPort"])
			proxy = &provider.ProxyConfig{
				Host:     conf["proxyHost"],
				Port:     port,
				User:     conf["proxyUser"],
				Password: conf["proxyPassword"],
			}
		}

		g.transport = provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(g.baseURL, timeout, proxy))
	}

	g.log.Info("gateway initialized", logger.LogContext{
		Merchant: logger.MaskSecret(g.merchantID),
		Gateway:  gatewayName,
		Fields: map[string]any{
			"base_url":   g.baseURL,
			"test_calls": g.testCalls,
			"secret":     logger.MaskSecret(g.secret),
		},
	})
	return nil
}

// Initialized reports whether Initialize succeeded
func (g *Gateway) Initialized() bool {
	return g.builder != nil && g.transport != nil
}

// StartTransaction creates a background payment, the payer is sent to the returned redirect
func (g *Gateway) StartTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpStartTransaction, data)
}

// StartRedirectTransaction creates a payment the gateway answers with an HTTP redirect
func (g *Gateway) StartRedirectTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpStartRedirectTransaction, data)
}

// StartRecurringTransaction creates the initial payment of a recurring series
func (g *Gateway) StartRecurringTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpStartRecurringTransaction, data)
}

// StartVerificationTransaction creates a card verification payment
func (g *Gateway) StartVerificationTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpStartVerificationTransaction, data)
}

// StartPreauthorizedTransaction creates a payment that only blocks the amount
func (g *Gateway) StartPreauthorizedTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpStartPreauthorizedTransaction, data)
}

// RepeatRecurringTransaction charges a recurring series again, data must carry payment.init_transaction_id
func (g *Gateway) RepeatRecurringTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpRepeatRecurringTransaction, data)
}

// ConfirmPreauthorizedTransaction captures amountInCents of a preauthorized payment
func (g *Gateway) ConfirmPreauthorizedTransaction(ctx context.Context, transID string, amountInCents int) (*Result, error) {
	return g.call(ctx, OpConfirmPreauthorizedTransaction, provider.Params{
		"transaction_id": transID,
		"payment":        provider.Params{"amount_in_cents": amountInCents},
	})
}

// CancelPreauthorizedTransaction releases a preauthorized payment
func (g *Gateway) CancelPreauthorizedTransaction(ctx context.Context, transID string) (*Result, error) {
	return g.call(ctx, OpCancelPreauthorizedTransaction, transactionParams(transID))
}

// RefundTransaction refunds a paid payment; data carries transaction_id, payment.amount_in_cents
// and optionally payment.currency and payment.reference_id
func (g *Gateway) RefundTransaction(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpRefundTransaction, data)
}

// CancelTransaction cancels a pending payment
func (g *Gateway) CancelTransaction(ctx context.Context, transID string) (*Result, error) {
	return g.call(ctx, OpCancelTransaction, transactionParams(transID))
}

// CheckTransaction returns the current state of a payment
func (g *Gateway) CheckTransaction(ctx context.Context, transID string) (*Result, error) {
	return g.call(ctx, OpCheckTransaction, transactionParams(transID))
}

// AllowedPaymentMethods lists the methods enabled for the e-shop. data may be nil.
func (g *Gateway) AllowedPaymentMethods(ctx context.Context, data provider.Params) (*Result, error) {
	return g.call(ctx, OpAllowedPaymentMethods, data)
}

// TransfersFrom lists the bank transfers settled on date
func (g *Gateway) TransfersFrom(ctx context.Context, date time.Time) (*Result, error) {
	return g.call(ctx, OpTransfersFrom, provider.Params{"transfer_date": date.Format(transferDateLayout)})
}

// DownloadTransfersCSV downloads the zipped CSV statement of date. See Result.File.
func (g *Gateway) DownloadTransfersCSV(ctx context.Context, date time.Time) (*Result, error) {
	return g.call(ctx, OpDownloadTransfersCSV, provider.Params{"transfer_date": date.Format(transferDateLayout)})
}

func transactionParams(transID string) provider.Params {
	return provider.Params{"transaction_id": transID}
}

func (g *Gateway) isTestCall(data provider.Params) bool {
	if g.testCalls {
		return true
	}
	flag, _ := data["test"].(bool)
	return flag
}

func (g *Gateway) requestURL(endpoint string) string {
	return strings.TrimRight(g.baseURL, "/") + "/" + endpoint
}

// call runs one operation: build, send, decode, normalize and classify
func (g *Gateway) call(ctx context.Context, op Operation, data provider.Params) (*Result, error) {
	if g.builder == nil || g.transport == nil {
		return nil, ErrNotInitialized
	}

	payload, err := g.builder.Build(op, data, g.isTestCall(data))
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	logCtx := logger.LogContext{
		Merchant:  logger.MaskSecret(g.merchantID),
		Gateway:   gatewayName,
		Operation: op.Name,
		RequestID: requestID,
	}
	g.log.Debug("sending gateway request", withFields(logCtx, map[string]any{
		"endpoint": op.Endpoint,
		"payload":  payload.Redacted(),
	}))

	start := time.Now()
	raw, err := g.transport.SendForm(ctx, &provider.HTTPRequest{
		Endpoint: op.Endpoint,
		FormData: payload.Form(),
	})

	var result *Result
	if err != nil {
		var transportErr *provider.TransportError
		if !errors.As(err, &transportErr) {
			return nil, fmt.Errorf("comgate: %s: %w", op.Name, err)
		}
		result = connectionFailure(transportErr)
	} else {
		result, err = g.settle(raw, g.requestURL(op.Endpoint))
		if err != nil {
			g.log.Error("failed to decode gateway response", err, withFields(logCtx, map[string]any{
				"http_code":    raw.StatusCode,
				"content_type": raw.ContentType(),
			}))
			g.observe(op, "decode_error", time.Since(start))
			return nil, fmt.Errorf("comgate: %s: %w", op.Name, err)
		}
	}

	elapsed := time.Since(start)
	g.observe(op, result.Outcome.String(), elapsed)
	g.report(ctx, op, requestID, payload, result, elapsed, logCtx)

	return result, nil
}

// settle decodes and normalizes a raw response and classifies its outcome
func (g *Gateway) settle(raw *provider.HTTPResponse, requestURL string) (*Result, error) {
	resp := NewResponse(raw, requestURL)

	decoded, err := resp.Body()
	if err != nil {
		return nil, err
	}
	redirectTo, err := resp.RedirectTo()
	if err != nil {
		return nil, err
	}

	return classify(resp.HTTPCode(), g.table.Normalize(decoded), redirectTo), nil
}

func (g *Gateway) observe(op Operation, outcome string, elapsed time.Duration) {
	if g.observer != nil {
		g.observer.ObserveCall(gatewayName, op.Name, outcome, elapsed)
	}
}

// report logs the outcome and journals the call
func (g *Gateway) report(ctx context.Context, op Operation, requestID string, payload Payload, result *Result, elapsed time.Duration, logCtx logger.LogContext) {
	record := provider.CallRecord{
		RequestID:    requestID,
		Gateway:      gatewayName,
		Operation:    op.Name,
		Endpoint:     op.Endpoint,
		Request:      payload.Redacted(),
		HTTPCode:     result.HTTPCode,
		Outcome:      result.Outcome.String(),
		RedirectTo:   result.RedirectTo,
		ProcessingMs: elapsed.Milliseconds(),
		Timestamp:    time.Now(),
	}

	fields := map[string]any{
		"http_code":     result.HTTPCode,
		"outcome":       record.Outcome,
		"processing_ms": record.ProcessingMs,
	}
	if result.RedirectTo != "" {
		fields["redirect_to"] = result.RedirectTo
	}

	if gatewayErr, failed := result.FirstError(); failed {
		record.ErrorCode = gatewayErr.Code
		record.ErrorMessage = gatewayErr.Message
		fields["error_code"] = gatewayErr.Code
		g.log.Warn(gatewayErr.Message, withFields(logCtx, fields))
	} else {
		g.log.Info("gateway call completed", withFields(logCtx, fields))
	}

	if g.journal == nil {
		return
	}
	if err := g.journal.Record(context.WithoutCancel(ctx), record); err != nil {
		g.log.Error("failed to journal gateway call", err, logCtx)
		if counter, ok := g.observer.(interface{ ObserveJournalFailure() }); ok {
			counter.ObserveJournalFailure()
		}
	}
}

func withFields(ctx logger.LogContext, fields map[string]any) logger.LogContext {
	ctx.Fields = fields
	return ctx
}
