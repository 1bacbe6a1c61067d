package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider"
	"github.com/mstgnz/gocomgate/provider/comgate"
)

const (
	gatewayTimeout = 30 * time.Second

	// payment methods change rarely, successful lists are reused for a while
	methodsCacheSize = 32
	methodsCacheTTL  = 10 * time.Minute
)

// PaymentGateway is the part of the Comgate client the payment API drives
type PaymentGateway interface {
	StartTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	StartPreauthorizedTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	StartRecurringTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	StartVerificationTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	RepeatRecurringTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	CheckTransaction(ctx context.Context, transID string) (*comgate.Result, error)
	CancelTransaction(ctx context.Context, transID string) (*comgate.Result, error)
	RefundTransaction(ctx context.Context, data provider.Params) (*comgate.Result, error)
	ConfirmPreauthorizedTransaction(ctx context.Context, transID string, amountInCents int) (*comgate.Result, error)
	CancelPreauthorizedTransaction(ctx context.Context, transID string) (*comgate.Result, error)
	AllowedPaymentMethods(ctx context.Context, data provider.Params) (*comgate.Result, error)
	TransfersFrom(ctx context.Context, date time.Time) (*comgate.Result, error)
}

// PaymentRequest is the JSON body of a new payment
type PaymentRequest struct {
	AmountInCents int    `json:"amount_in_cents" validate:"required,gt=0"`
	Currency      string `json:"currency" validate:"required,len=3"`
	Label         string `json:"label" validate:"required,max=16"`
	ReferenceID   string `json:"reference_id" validate:"required"`
	Method        string `json:"method" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
	Account       string `json:"account,omitempty"`
	Country       string `json:"country,omitempty" validate:"omitempty,len=2"`
	Language      string `json:"language,omitempty" validate:"omitempty,len=2"`
	Embedded      bool   `json:"embedded,omitempty"`
	Kind          string `json:"kind,omitempty" validate:"omitempty,oneof=standard preauth recurring verification"`
	InitTransID   string `json:"init_transaction_id,omitempty"`
	Test          bool   `json:"test,omitempty"`
}

func (p PaymentRequest) params() provider.Params {
	data := provider.Params{
		"payment": provider.Params{
			"amount_in_cents": p.AmountInCents,
			"currency":        p.Currency,
			"label":           p.Label,
			"reference_id":    p.ReferenceID,
			"method":          p.Method,
		},
		"payer": provider.Params{"email": p.Email},
	}

	optional := []struct {
		path  provider.Path
		value string
	}{
		{provider.Path{"payer", "phone"}, p.Phone},
		{provider.Path{"payment", "product_name"}, p.ProductName},
		{provider.Path{"payment", "init_transaction_id"}, p.InitTransID},
		{provider.Path{"merchant", "target_shop_account"}, p.Account},
		{provider.Path{"options", "country_code"}, p.Country},
		{provider.Path{"options", "language_code"}, p.Language},
	}
	for _, o := range optional {
		if o.value != "" {
			data.Set(o.path, o.value)
		}
	}
	if p.Embedded {
		data.Set(provider.Path{"options", "embedded_iframe"}, true)
	}
	if p.Test {
		data["test"] = true
	}
	return data
}

// RefundRequest is the JSON body of a refund
type RefundRequest struct {
	AmountInCents int    `json:"amount_in_cents" validate:"required,gt=0"`
	Currency      string `json:"currency,omitempty" validate:"omitempty,len=3"`
	ReferenceID   string `json:"reference_id,omitempty"`
}

// CaptureRequest is the JSON body of a preauthorization capture
type CaptureRequest struct {
	AmountInCents int `json:"amount_in_cents" validate:"required,gt=0"`
}

// PaymentHandler exposes the gateway operations as a JSON API
type PaymentHandler struct {
	gateway  PaymentGateway
	validate *validator.Validate
	methods  *provider.Cache[*comgate.Result]
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gateway PaymentGateway, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		gateway:  gateway,
		validate: validate,
		methods:  provider.NewCache[*comgate.Result](methodsCacheSize, methodsCacheTTL),
	}
}

// CreatePayment starts a payment and returns the redirect the payer must follow
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	var (
		result *comgate.Result
		err    error
	)
	switch req.Kind {
	case "preauth":
		result, err = h.gateway.StartPreauthorizedTransaction(ctx, req.params())
	case "verification":
		result, err = h.gateway.StartVerificationTransaction(ctx, req.params())
	case "recurring":
		if req.InitTransID != "" {
			result, err = h.gateway.RepeatRecurringTransaction(ctx, req.params())
		} else {
			result, err = h.gateway.StartRecurringTransaction(ctx, req.params())
		}
	default:
		result, err = h.gateway.StartTransaction(ctx, req.params())
	}

	writeResult(w, "Payment created", result, err)
}

// GetPaymentStatus returns the current state of a payment
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	transID := chi.URLParam(r, "transID")
	if transID == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	result, err := h.gateway.CheckTransaction(ctx, transID)
	writeResult(w, "Payment status retrieved", result, err)
}

// CancelPayment cancels a pending payment
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	transID := chi.URLParam(r, "transID")
	if transID == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	result, err := h.gateway.CancelTransaction(ctx, transID)
	writeResult(w, "Payment cancelled", result, err)
}

// RefundPayment refunds a paid payment fully or partially
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	transID := chi.URLParam(r, "transID")
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	data := provider.Params{
		"transaction_id": transID,
		"payment":        provider.Params{"amount_in_cents": req.AmountInCents},
	}
	if req.Currency != "" {
		data.Set(provider.Path{"payment", "currency"}, req.Currency)
	}
	if req.ReferenceID != "" {
		data.Set(provider.Path{"payment", "reference_id"}, req.ReferenceID)
	}

	result, err := h.gateway.RefundTransaction(ctx, data)
	writeResult(w, "Payment refunded", result, err)
}

// CapturePayment confirms a preauthorized payment
func (h *PaymentHandler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	result, err := h.gateway.ConfirmPreauthorizedTransaction(ctx, chi.URLParam(r, "transID"), req.AmountInCents)
	writeResult(w, "Preauthorization captured", result, err)
}

// ReleasePayment cancels a preauthorized payment
func (h *PaymentHandler) ReleasePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	result, err := h.gateway.CancelPreauthorizedTransaction(ctx, chi.URLParam(r, "transID"))
	writeResult(w, "Preauthorization released", result, err)
}

// ListMethods lists the payment methods enabled for the e-shop
func (h *PaymentHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	currency, country, language := query.Get("currency"), query.Get("country"), query.Get("language")

	cacheKey := currency + "|" + country + "|" + language
	if cached, ok := h.methods.Get(cacheKey); ok {
		writeResult(w, "Payment methods retrieved", cached, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	data := provider.Params{}
	if currency != "" {
		data.Set(provider.Path{"payment", "currency"}, currency)
	}
	if country != "" {
		data.Set(provider.Path{"options", "country_code"}, country)
	}
	if language != "" {
		data.Set(provider.Path{"options", "language_code"}, language)
	}

	result, err := h.gateway.AllowedPaymentMethods(ctx, data)
	if err == nil && result.Outcome == comgate.OutcomeSuccess {
		h.methods.Set(cacheKey, result)
	}
	writeResult(w, "Payment methods retrieved", result, err)
}

// ListTransfers lists the bank transfers of the day given as ?date=YYYY-MM-DD
func (h *PaymentHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD", err)
		return
	}

	result, err := h.gateway.TransfersFrom(ctx, date)
	writeResult(w, "Transfers retrieved", result, err)
}
