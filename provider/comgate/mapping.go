package comgate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mstgnz/gocomgate/provider"
)

// Coercion declares how a wire value is typed on its way in or out
type Coercion int

const (
	AsString Coercion = iota
	AsInt
	AsFloat
	AsBool
	AsState
	// AsBase64 encodes the outbound value; inbound it stays a string
	AsBase64
)

// Field is one wire key ⇄ domain path entry
type Field struct {
	WireKey  string
	Path     provider.Path
	Coercion Coercion
}

// Table is an immutable, validated mapping between wire keys and domain paths.
// Aliased wire keys resolve in declaration order: the later entry wins.
type Table struct {
	fields []Field
	byWire map[string]int
}

var ErrUnknownWireKey = errors.New("wire key is not mapped")

// NewTable validates fields and builds a lookup table
func NewTable(fields ...Field) (*Table, error) {
	t := &Table{
		fields: make([]Field, 0, len(fields)),
		byWire: make(map[string]int, len(fields)),
	}

	for i, f := range fields {
		if f.WireKey == "" {
			return nil, fmt.Errorf("comgate: field #%d has an empty wire key", i)
		}
		if len(f.Path) == 0 {
			return nil, fmt.Errorf("comgate: wire key '%s' has an empty domain path", f.WireKey)
		}
		for _, segment := range f.Path {
			if segment == "" {
				return nil, fmt.Errorf("comgate: wire key '%s' has an empty path segment", f.WireKey)
			}
		}
		if _, exists := t.byWire[f.WireKey]; exists {
			return nil, fmt.Errorf("comgate: wire key '%s' is mapped twice", f.WireKey)
		}

		path := make(provider.Path, len(f.Path))
		copy(path, f.Path)
		t.byWire[f.WireKey] = len(t.fields)
		t.fields = append(t.fields, Field{WireKey: f.WireKey, Path: path, Coercion: f.Coercion})
	}

	return t, nil
}

// MustTable is NewTable that panics on an invalid definition
func MustTable(fields ...Field) *Table {
	t, err := NewTable(fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the entry of a wire key
func (t *Table) Lookup(wireKey string) (Field, bool) {
	i, ok := t.byWire[wireKey]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Fields returns a copy of the table entries in declaration order
func (t *Table) Fields() []Field {
	fields := make([]Field, len(t.fields))
	copy(fields, t.fields)
	return fields
}

// rank orders wire keys for decoding: unmapped keys first, mapped keys in declaration order
func (t *Table) rank(wireKey string) int {
	if i, ok := t.byWire[wireKey]; ok {
		return i + 1
	}
	return 0
}

// DefaultTable is the Comgate wire vocabulary
var DefaultTable = MustTable(
	Field{"code", provider.Path{"code"}, AsInt},
	Field{"error", provider.Path{"error"}, AsInt},
	Field{"message", provider.Path{"message"}, AsString},
	Field{"merchant", provider.Path{"merchant", "gateway_id"}, AsString},
	Field{"test", provider.Path{"test"}, AsBool},

	Field{"price", provider.Path{"payment", "amount_in_cents"}, AsInt},
	Field{"amount", provider.Path{"payment", "amount_in_cents"}, AsInt},
	Field{"curr", provider.Path{"payment", "currency"}, AsString},
	Field{"label", provider.Path{"payment", "label"}, AsString},
	Field{"refId", provider.Path{"payment", "reference_id"}, AsString},
	Field{"method", provider.Path{"payment", "method"}, AsString},
	Field{"applePayPayload", provider.Path{"payment", "apple_pay_payload"}, AsBase64},
	Field{"dynamicExpiration", provider.Path{"payment", "dynamic_expiration"}, AsBool},
	Field{"expirationTime", provider.Path{"payment", "expiration_time"}, AsString},
	Field{"name", provider.Path{"payment", "product_name"}, AsString},
	Field{"preauth", provider.Path{"payment", "preauthorization"}, AsBool},
	Field{"verification", provider.Path{"payment", "verification_payment"}, AsBool},
	Field{"initRecurring", provider.Path{"payment", "recurring"}, AsBool},
	Field{"initRecurringId", provider.Path{"payment", "init_transaction_id"}, AsString},
	Field{"fee", provider.Path{"payment", "fee"}, AsFloat},
	Field{"vs", provider.Path{"payment", "variable_symbol"}, AsInt},

	Field{"email", provider.Path{"payer", "email"}, AsString},
	Field{"phone", provider.Path{"payer", "phone"}, AsString},
	Field{"payerId", provider.Path{"payer", "id"}, AsString},
	Field{"payer_acc", provider.Path{"payer", "account_number"}, AsString},
	Field{"payerAcc", provider.Path{"payer", "account_number"}, AsString},
	Field{"payer_name", provider.Path{"payer", "account_name"}, AsString},
	Field{"payerName", provider.Path{"payer", "account_name"}, AsString},

	Field{"account", provider.Path{"merchant", "target_shop_account"}, AsString},

	Field{"country", provider.Path{"options", "country_code"}, AsString},
	Field{"lang", provider.Path{"options", "language_code"}, AsString},
	Field{"embedded", provider.Path{"options", "embedded_iframe"}, AsBool},

	Field{"transId", provider.Path{"transaction_id"}, AsString},
	Field{"status", provider.Path{"state"}, AsState},
	Field{"redirect", provider.Path{"redirect_to"}, AsString},
	Field{"transferId", provider.Path{"transfer_id"}, AsString},
	Field{"date", provider.Path{"transfer_date"}, AsString},
	Field{"transferDate", provider.Path{"transfer_date"}, AsString},
	Field{"variableSymbol", provider.Path{"variable_symbol"}, AsInt},
	Field{"accountCounterparty", provider.Path{"account_counterparty"}, AsString},
	Field{"accountOutgoing", provider.Path{"account_outgoing"}, AsString},
)

// PaymentState is the lower-cased payment status reported by the gateway
type PaymentState string

const (
	StatePending    PaymentState = "pending"
	StatePaid       PaymentState = "paid"
	StateCancelled  PaymentState = "cancelled"
	StateAuthorized PaymentState = "authorized"
)

// coerceInbound types a decoded wire value according to the field coercion.
// Values that cannot be parsed are kept as received.
func coerceInbound(c Coercion, value any) any {
	s, isString := value.(string)
	if !isString {
		return value
	}

	switch c {
	case AsInt:
		trimmed := strings.TrimSpace(s)
		n, err := strconv.Atoi(trimmed)
		if err == nil {
			return n
		}
		if errors.Is(err, strconv.ErrRange) {
			return value
		}
		// decimals and exponents outside the int range stay as received
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f >= float64(math.MinInt) && f < float64(math.MaxInt) {
			return int(f)
		}
	case AsFloat:
		if s == "unknown" {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case AsBool:
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	case AsState:
		return PaymentState(strings.ToLower(s))
	}
	return value
}

// coerceOutbound prepares a domain value for the wire payload
func coerceOutbound(c Coercion, value any) any {
	if c != AsBase64 {
		return value
	}

	switch v := value.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case string:
		return base64.StdEncoding.EncodeToString([]byte(v))
	default:
		return value
	}
}
