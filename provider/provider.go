package provider

import (
	"context"
	"strings"
	"time"
)

// Path locates a value inside nested Params, e.g. {"payment", "amount_in_cents"}
type Path []string

// String returns the dotted form of the path
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Params is the nested, loosely typed domain model shared by requests and normalized responses.
// Nested sections are Params as well.
type Params map[string]any

// Dig resolves a value at the given path. A nil value counts as absent.
func (p Params) Dig(path Path) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	var current any = p
	for _, segment := range path {
		section, ok := asParams(current)
		if !ok {
			return nil, false
		}
		value, exists := section[segment]
		if !exists || value == nil {
			return nil, false
		}
		current = value
	}
	return current, true
}

// Set writes value at path, creating intermediate sections as needed.
// An existing non-section value on the way is replaced by a new section.
func (p Params) Set(path Path, value any) {
	if len(path) == 0 {
		return
	}

	section := p
	for _, segment := range path[:len(path)-1] {
		next, ok := asParams(section[segment])
		if !ok {
			next = Params{}
			section[segment] = next
		}
		section = next
	}
	section[path[len(path)-1]] = value
}

// Section returns the nested Params under key, or nil
func (p Params) Section(key string) Params {
	section, _ := asParams(p[key])
	return section
}

func asParams(value any) (Params, bool) {
	switch v := value.(type) {
	case Params:
		return v, true
	case map[string]any:
		return Params(v), true
	default:
		return nil, false
	}
}

// ConfigField represents a required configuration field for a payment gateway
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url", "email", "boolean"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`   // regex pattern for validation
	MinLength   int    `json:"minLength,omitempty"` // minimum length for string fields
	MaxLength   int    `json:"maxLength,omitempty"` // maximum length for string fields
}

// CallRecord is one journaled gateway call. Request must already be redacted.
type CallRecord struct {
	RequestID    string         `json:"request_id"`
	Gateway      string         `json:"gateway"`
	Operation    string         `json:"operation"`
	Endpoint     string         `json:"endpoint"`
	Request      map[string]any `json:"request,omitempty"`
	HTTPCode     int            `json:"http_code"`
	Outcome      string         `json:"outcome"`
	ErrorCode    int            `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RedirectTo   string         `json:"redirect_to,omitempty"`
	ProcessingMs int64          `json:"processing_ms"`
	Timestamp    time.Time      `json:"timestamp"`
}

// CallJournal persists gateway call records
type CallJournal interface {
	Record(ctx context.Context, record CallRecord) error
}

// CallObserver receives the outcome and latency of every gateway call
type CallObserver interface {
	ObserveCall(gateway, operation, outcome string, duration time.Duration)
}
