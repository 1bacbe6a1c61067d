package comgate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/mstgnz/gocomgate/provider"
)

var ErrUnsupportedContentType = errors.New("unsupported response content type")

// Decoded is the raw gateway body after content-type decoding: an ObjectBody or a ListBody
type Decoded interface {
	isDecoded()
}

// ObjectBody is a flat wire key → value body. Scalars are strings; nested JSON is kept.
// Zip downloads arrive as {"file": *os.File}.
type ObjectBody map[string]any

// ListBody is a sequence of object bodies
type ListBody []map[string]any

func (ObjectBody) isDecoded() {}
func (ListBody) isDecoded()   {}

// Response decodes one raw gateway response. Decoding runs once; later calls return the cached result.
type Response struct {
	raw        *provider.HTTPResponse
	requestURL string

	once     sync.Once
	body     Decoded
	redirect string
	err      error
}

// NewResponse wraps a raw response of a request sent to requestURL
func NewResponse(raw *provider.HTTPResponse, requestURL string) *Response {
	return &Response{raw: raw, requestURL: requestURL}
}

// HTTPCode returns the HTTP status code of the response
func (r *Response) HTTPCode() int {
	return r.raw.StatusCode
}

// Body returns the decoded body
func (r *Response) Body() (Decoded, error) {
	r.once.Do(r.decode)
	return r.body, r.err
}

// RedirectTo returns the absolute redirect target, or "" when the response is no redirect
func (r *Response) RedirectTo() (string, error) {
	r.once.Do(r.decode)
	return r.redirect, r.err
}

func (r *Response) decode() {
	if isRedirectStatus(r.raw.StatusCode) {
		r.body = ObjectBody{}
		r.redirect, r.err = resolveLocation(r.requestURL, r.raw.Location())
		return
	}

	r.body, r.err = decodeBody(r.raw.ContentType(), r.raw.Body)
	if r.err != nil {
		r.body = nil
		return
	}

	if r.raw.StatusCode == http.StatusOK {
		if obj, ok := r.body.(ObjectBody); ok {
			if target, ok := obj["redirect"].(string); ok {
				r.redirect = target
			}
		}
	}
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolveLocation(requestURL, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", nil
	}

	target, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("comgate: invalid redirect location %q: %w", location, err)
	}
	if target.IsAbs() {
		return target.String(), nil
	}

	base, err := url.Parse(requestURL)
	if err != nil {
		return "", fmt.Errorf("comgate: invalid request url %q: %w", requestURL, err)
	}
	return base.ResolveReference(target).String(), nil
}

func decodeBody(contentType string, body []byte) (Decoded, error) {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "json"):
		return decodeJSON(body)
	case strings.Contains(ct, "form-urlencoded"):
		return decodeForm(body)
	case strings.Contains(ct, "zip"):
		return decodeZip(body)
	case len(bytes.TrimSpace(body)) == 0:
		return ObjectBody{}, nil
	default:
		return nil, fmt.Errorf("comgate: %w: %q", ErrUnsupportedContentType, contentType)
	}
}

func decodeForm(body []byte) (Decoded, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("comgate: failed to decode form body: %w", err)
	}

	obj := make(ObjectBody, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			obj[key] = vals[0]
		}
	}
	return obj, nil
}

func decodeJSON(body []byte) (Decoded, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return ObjectBody{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("comgate: failed to decode json body: %w", err)
	}
	if err := decoder.Decode(new(any)); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected content after the first value")
		}
		return nil, fmt.Errorf("comgate: failed to decode json body: %w", err)
	}

	switch v := raw.(type) {
	case map[string]any:
		return ObjectBody(stringifyScalars(v).(map[string]any)), nil
	case []any:
		list := make(ListBody, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("comgate: json array element #%d is not an object", i)
			}
			list = append(list, stringifyScalars(obj).(map[string]any))
		}
		return list, nil
	default:
		return nil, fmt.Errorf("comgate: unexpected json body of type %T", raw)
	}
}

// stringifyScalars turns JSON numbers and booleans into their wire strings
func stringifyScalars(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = stringifyScalars(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = stringifyScalars(item)
		}
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return v
	}
}

// decodeZip stores the body in a temporary file. The caller owns closing and removing it.
func decodeZip(body []byte) (Decoded, error) {
	file, err := os.CreateTemp("", "comgate-*.zip")
	if err != nil {
		return nil, fmt.Errorf("comgate: failed to create zip file: %w", err)
	}

	fail := func(step string, err error) (Decoded, error) {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("comgate: failed to %s zip file: %w", step, err)
	}

	if _, err := file.Write(body); err != nil {
		return fail("write", err)
	}
	if err := file.Sync(); err != nil {
		return fail("flush", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fail("rewind", err)
	}

	return ObjectBody{"file": file}, nil
}

func httpStatusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("http status %d", code)
}
