package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/provider/comgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMerchant = "123456"
	testSecret   = "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y"
)

type countingCallbacks map[string]int

func (c countingCallbacks) ObserveCallback(status string) { c[status]++ }

func quietLogger() *logger.SystemLogger {
	return logger.NewSystemLogger(logger.SystemLoggerConfig{})
}

func newCallbackGateway(t *testing.T) *comgate.Gateway {
	t.Helper()

	g := comgate.NewProvider(comgate.WithLogger(quietLogger()))
	require.NoError(t, g.Initialize(map[string]string{
		"merchantId": testMerchant,
		"secret":     testSecret,
	}))
	return g
}

func callbackForm(secret string) string {
	return "merchant=" + testMerchant + "&test=false&price=10000&curr=CZK&label=Beatles+-+Help&refId=2010102600" +
		"&method=CARD_CZ_CSOB_2&email=payer1%40gmail.com&transId=AB12-CD34-EF56&secret=" + secret + "&status=PAID"
}

func postCallback(handler *CallbackHandler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/callback/comgate", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)
	return w
}

func TestCallbackHandler_HandleCallback(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
		observed       string
	}{
		{"accepted", "application/x-www-form-urlencoded", callbackForm(testSecret), http.StatusOK, "accepted"},
		{"accepted without content type", "", callbackForm(testSecret), http.StatusOK, "accepted"},
		{"wrong secret", "application/x-www-form-urlencoded", callbackForm("not-the-secret"), http.StatusUnauthorized, "unauthorized"},
		{"missing credentials", "application/x-www-form-urlencoded", "transId=AB12-CD34-EF56&status=PAID", http.StatusBadRequest, "invalid"},
		{"json list", "application/json", `[{"transId":"AB12-CD34-EF56"}]`, http.StatusBadRequest, "invalid"},
		{"zip body", "application/zip", "PK\x03\x04", http.StatusBadRequest, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := countingCallbacks{}
			handler := NewCallbackHandler(newCallbackGateway(t), observer, nil, quietLogger())

			w := postCallback(handler, tt.contentType, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, countingCallbacks{tt.observed: 1}, observer)
			assert.NotContains(t, w.Body.String(), testSecret)
		})
	}
}

func TestCallbackHandler_ReturnsNormalizedHash(t *testing.T) {
	handler := NewCallbackHandler(newCallbackGateway(t), nil, nil, quietLogger())

	w := postCallback(handler, "application/x-www-form-urlencoded", callbackForm(testSecret))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"transaction_id":"AB12-CD34-EF56"`)
	assert.Contains(t, body, `"state":"paid"`)
	assert.Contains(t, body, `"amount_in_cents":10000`)
	assert.NotContains(t, body, "secret")
}

func TestCallbackHandler_Listener(t *testing.T) {
	var received *comgate.Result
	listener := func(ctx context.Context, result *comgate.Result) error {
		received = result
		return nil
	}

	observer := countingCallbacks{}
	handler := NewCallbackHandler(newCallbackGateway(t), observer, listener, quietLogger())

	w := postCallback(handler, "application/x-www-form-urlencoded", callbackForm(testSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, received)
	assert.Equal(t, "AB12-CD34-EF56", received.Hash()["transaction_id"])
	assert.Equal(t, comgate.OutcomeSuccess, received.Outcome)
}

func TestCallbackHandler_ListenerError(t *testing.T) {
	listener := func(ctx context.Context, result *comgate.Result) error {
		return errors.New("order store unavailable")
	}

	observer := countingCallbacks{}
	handler := NewCallbackHandler(newCallbackGateway(t), observer, listener, quietLogger())

	w := postCallback(handler, "application/x-www-form-urlencoded", callbackForm(testSecret))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, countingCallbacks{"listener_error": 1}, observer)
	assert.NotContains(t, w.Body.String(), "order store unavailable")
}

func TestCallbackHandler_ListenerNotCalledForUnauthorized(t *testing.T) {
	called := false
	listener := func(ctx context.Context, result *comgate.Result) error {
		called = true
		return nil
	}

	handler := NewCallbackHandler(newCallbackGateway(t), nil, listener, quietLogger())
	w := postCallback(handler, "application/x-www-form-urlencoded", callbackForm("not-the-secret"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestCallbackHandler_RejectsOversizedBody(t *testing.T) {
	called := false
	listener := func(ctx context.Context, result *comgate.Result) error {
		called = true
		return nil
	}

	observer := countingCallbacks{}
	handler := NewCallbackHandler(newCallbackGateway(t), observer, listener, quietLogger())

	body := callbackForm(testSecret) + "&padding=" + strings.Repeat("a", maxCallbackBytes)
	w := postCallback(handler, "application/x-www-form-urlencoded", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, countingCallbacks{"invalid": 1}, observer)
	assert.False(t, called)
}

func TestCallbackHandler_GatewayNotInitialized(t *testing.T) {
	handler := NewCallbackHandler(comgate.NewProvider(comgate.WithLogger(quietLogger())), nil, nil, quietLogger())

	w := postCallback(handler, "application/x-www-form-urlencoded", callbackForm(testSecret))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
