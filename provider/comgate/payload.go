package comgate

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mstgnz/gocomgate/provider"
)

// Operation describes one gateway use case: where it is sent and which keys it carries
type Operation struct {
	Name     string
	Endpoint string
	Required []string
	Optional []string
	Static   map[string]any
}

var createRequired = []string{"curr", "email", "label", "method", "price", "refId"}
var createOptional = []string{
	"account", "applePayPayload", "country", "dynamicExpiration", "embedded",
	"expirationTime", "lang", "name", "phone",
}

var (
	OpStartTransaction = Operation{
		Name: "start_transaction", Endpoint: endpointCreate,
		Required: createRequired, Optional: createOptional,
		Static: map[string]any{"prepareOnly": true},
	}
	OpStartRedirectTransaction = Operation{
		Name: "start_redirect_transaction", Endpoint: endpointCreate,
		Required: createRequired, Optional: createOptional,
		Static: map[string]any{"prepareOnly": false},
	}
	OpStartRecurringTransaction = Operation{
		Name: "start_recurring_transaction", Endpoint: endpointCreate,
		Required: createRequired, Optional: createOptional,
		Static: map[string]any{"prepareOnly": true, "initRecurring": true},
	}
	OpStartVerificationTransaction = Operation{
		Name: "start_verification_transaction", Endpoint: endpointCreate,
		Required: createRequired, Optional: createOptional,
		Static: map[string]any{"prepareOnly": true, "verification": true},
	}
	OpStartPreauthorizedTransaction = Operation{
		Name: "start_preauthorized_transaction", Endpoint: endpointCreate,
		Required: createRequired, Optional: createOptional,
		Static: map[string]any{"prepareOnly": true, "preauth": true},
	}
	OpRepeatRecurringTransaction = Operation{
		Name: "repeat_recurring_transaction", Endpoint: endpointRecurring,
		Required: []string{"curr", "label", "price", "refId", "initRecurringId"},
		Optional: []string{"email", "name", "phone", "account", "country", "lang"},
		Static:   map[string]any{"prepareOnly": true},
	}
	OpConfirmPreauthorizedTransaction = Operation{
		Name: "confirm_preauthorized_transaction", Endpoint: endpointCapturePreauth,
		Required: []string{"transId", "amount"},
	}
	OpCancelPreauthorizedTransaction = Operation{
		Name: "cancel_preauthorized_transaction", Endpoint: endpointCancelPreauth,
		Required: []string{"transId"},
	}
	OpRefundTransaction = Operation{
		Name: "refund_transaction", Endpoint: endpointRefund,
		Required: []string{"transId", "amount"},
		Optional: []string{"curr", "refId"},
	}
	OpCancelTransaction = Operation{
		Name: "cancel_transaction", Endpoint: endpointCancel,
		Required: []string{"transId"},
	}
	OpCheckTransaction = Operation{
		Name: "check_transaction", Endpoint: endpointStatus,
		Required: []string{"transId"},
	}
	OpAllowedPaymentMethods = Operation{
		Name: "allowed_payment_methods", Endpoint: endpointMethods,
		Optional: []string{"curr", "country", "lang"},
		Static:   map[string]any{"type": "json"},
	}
	OpTransfersFrom = Operation{
		Name: "transfers_from", Endpoint: endpointTransferList,
		Required: []string{"date"},
	}
	OpDownloadTransfersCSV = Operation{
		Name: "download_transfers_csv", Endpoint: endpointCSVDownload,
		Required: []string{"date"},
	}
)

// MissingField is a required wire key with no value in the domain data
type MissingField struct {
	WireKey string
	Path    provider.Path
}

// MissingFieldsError lists every required field absent from one request
type MissingFieldsError struct {
	Operation string
	Fields    []MissingField
}

func (e *MissingFieldsError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s (%s)", f.WireKey, f.Path)
	}
	return fmt.Sprintf("comgate: %s: missing required fields: %s", e.Operation, strings.Join(parts, ", "))
}

// Payload is the flat wire body of one request
type Payload map[string]any

// Form encodes the payload as url.Values
func (p Payload) Form() url.Values {
	form := make(url.Values, len(p))
	for key, value := range p {
		form.Set(key, wireString(value))
	}
	return form
}

// Redacted returns a copy of the payload safe to log or persist
func (p Payload) Redacted() map[string]any {
	out := make(map[string]any, len(p))
	for key, value := range p {
		if key == "secret" {
			out[key] = "***"
			continue
		}
		out[key] = value
	}
	return out
}

// Keys returns the payload keys sorted
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func wireString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case PaymentState:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Builder turns domain data into wire payloads
type Builder struct {
	table    *Table
	merchant string
	secret   string
}

// NewBuilder creates a payload builder with the merchant credentials it injects
func NewBuilder(table *Table, merchant, secret string) *Builder {
	if table == nil {
		table = DefaultTable
	}
	return &Builder{table: table, merchant: merchant, secret: secret}
}

// Build resolves the operation keys in data. Every missing required key is reported at once.
func (b *Builder) Build(op Operation, data provider.Params, test bool) (Payload, error) {
	payload := Payload{}
	var missing []MissingField

	for _, key := range op.Required {
		field, ok := b.table.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("comgate: %s: %w: %s", op.Name, ErrUnknownWireKey, key)
		}
		value, found := data.Dig(field.Path)
		if !found {
			missing = append(missing, MissingField{WireKey: key, Path: field.Path})
			continue
		}
		payload[key] = coerceOutbound(field.Coercion, value)
	}

	for _, key := range op.Optional {
		field, ok := b.table.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("comgate: %s: %w: %s", op.Name, ErrUnknownWireKey, key)
		}
		if value, found := data.Dig(field.Path); found {
			payload[key] = coerceOutbound(field.Coercion, value)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingFieldsError{Operation: op.Name, Fields: missing}
	}

	for key, value := range op.Static {
		payload[key] = value
	}
	payload["merchant"] = b.merchant
	payload["secret"] = b.secret
	if test {
		payload["test"] = "true"
	}

	return payload, nil
}
