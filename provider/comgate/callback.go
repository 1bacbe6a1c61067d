package comgate

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrInvalidCallback = errors.New("comgate: invalid callback")

// DecodeCallback decodes the body of an inbound gateway notification
func DecodeCallback(contentType string, body []byte) (ObjectBody, error) {
	if contentType == "" {
		contentType = "application/x-www-form-urlencoded"
	}

	if strings.Contains(strings.ToLower(contentType), "zip") {
		return nil, fmt.Errorf("%w: binary body", ErrInvalidCallback)
	}

	decoded, err := decodeBody(contentType, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	obj, ok := decoded.(ObjectBody)
	if !ok {
		return nil, fmt.Errorf("%w: body is not a flat object", ErrInvalidCallback)
	}
	return obj, nil
}

// ProcessCallback normalizes a gateway notification with the default table. No call is made.
func ProcessCallback(params ObjectBody) *Result {
	return DefaultTable.processCallback(params)
}

func (t *Table) processCallback(params ObjectBody) *Result {
	return classify(http.StatusOK, t.Normalize(params), "")
}

// ProcessCallback normalizes a gateway notification with the gateway table
func (g *Gateway) ProcessCallback(params ObjectBody) *Result {
	return g.table.processCallback(params)
}

// ValidateCallback checks that a notification carries this e-shop's merchant id and secret
func (g *Gateway) ValidateCallback(params ObjectBody) (bool, error) {
	if g.builder == nil {
		return false, ErrNotInitialized
	}

	merchant, _ := params["merchant"].(string)
	secret, _ := params["secret"].(string)
	if merchant == "" || secret == "" {
		return false, fmt.Errorf("%w: merchant and secret are required", ErrInvalidCallback)
	}

	merchantOK := subtle.ConstantTimeCompare([]byte(merchant), []byte(g.merchantID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(g.secret)) == 1
	return merchantOK && secretOK, nil
}
