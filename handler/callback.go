package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider/comgate"
)

// upper bound for one notification body
const maxCallbackBytes = 64 << 10

// CallbackVerifier authenticates and normalizes gateway notifications
type CallbackVerifier interface {
	ValidateCallback(params comgate.ObjectBody) (bool, error)
	ProcessCallback(params comgate.ObjectBody) *comgate.Result
}

// CallbackObserver counts notifications by how they were handled
type CallbackObserver interface {
	ObserveCallback(status string)
}

// PaymentListener receives every authenticated notification. An error makes the gateway retry.
type PaymentListener func(ctx context.Context, result *comgate.Result) error

// CallbackHandler receives the payment status notifications pushed by the gateway
type CallbackHandler struct {
	gateway  CallbackVerifier
	observer CallbackObserver
	listener PaymentListener
	log      *logger.SystemLogger
}

// NewCallbackHandler creates a callback handler. observer and listener may be nil.
func NewCallbackHandler(gateway CallbackVerifier, observer CallbackObserver, listener PaymentListener, log *logger.SystemLogger) *CallbackHandler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &CallbackHandler{
		gateway:  gateway,
		observer: observer,
		listener: listener,
		log:      log,
	}
}

// HandleCallback decodes, authenticates and normalizes one notification
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		h.observe("invalid")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Callback body too large", err)
			return
		}
		response.Error(w, http.StatusBadRequest, "Failed to read callback body", err)
		return
	}

	params, err := comgate.DecodeCallback(r.Header.Get("Content-Type"), body)
	if err != nil {
		h.observe("invalid")
		response.Error(w, http.StatusBadRequest, "Invalid callback", err)
		return
	}

	valid, err := h.gateway.ValidateCallback(params)
	if err != nil {
		h.observe("invalid")
		response.Error(w, http.StatusBadRequest, "Invalid callback", err)
		return
	}

	transID, _ := params["transId"].(string)
	logCtx := logger.LogContext{
		Gateway:   "comgate",
		Operation: "callback",
		Fields:    map[string]any{"transaction_id": transID},
	}

	if !valid {
		h.observe("unauthorized")
		h.log.Warn("callback credentials do not match", logCtx)
		response.Error(w, http.StatusUnauthorized, "Invalid merchant credentials", nil)
		return
	}

	result := h.gateway.ProcessCallback(params)
	logCtx.Fields["state"] = result.Hash()["state"]

	if h.listener != nil {
		if err := h.listener(r.Context(), result); err != nil {
			h.observe("listener_error")
			h.log.Error("payment listener failed", err, logCtx)
			response.Error(w, http.StatusInternalServerError, "Callback not processed", nil)
			return
		}
	}

	h.observe("accepted")
	h.log.Info("callback accepted", logCtx)
	response.Success(w, http.StatusOK, "Callback processed", viewOf(result))
}

func (h *CallbackHandler) observe(status string) {
	if h.observer != nil {
		h.observer.ObserveCallback(status)
	}
}
