package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Transport sends a flat form payload and returns the raw gateway response.
// Network and protocol faults are reported as *TransportError; an HTTP error
// status is a successful transport outcome.
type Transport interface {
	SendForm(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// ProxyConfig holds optional forward proxy credentials
type ProxyConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	BaseURL            string
	Timeout            time.Duration
	KeepAlive          time.Duration
	InsecureSkipVerify bool
	DefaultHeaders     map[string]string
	Proxy              *ProxyConfig
}

// HTTPRequest represents a standardized HTTP request
type HTTPRequest struct {
	Method      string
	Endpoint    string
	Headers     map[string]string
	FormData    url.Values
	QueryParams map[string]string
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	RawBody    string
}

// ContentType returns the Content-Type header of the response
func (r *HTTPResponse) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// Location returns the Location header of the response
func (r *HTTPResponse) Location() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Location")
}

// TransportError is a network or protocol level fault raised while talking to the gateway
type TransportError struct {
	Class string
	URL   string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s > %s - %v", e.Class, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderHTTPClient provides standardized HTTP operations for payment gateways
type ProviderHTTPClient struct {
	config *HTTPClientConfig
	client *http.Client
}

// NewProviderHTTPClient creates a new provider HTTP client
func NewProviderHTTPClient(config *HTTPClientConfig) *ProviderHTTPClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.KeepAlive == 0 {
		config.KeepAlive = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
		DialContext: (&net.Dialer{
			Timeout:   config.Timeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		IdleConnTimeout: config.KeepAlive,
	}
	if proxyURL := config.Proxy.url(); proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: otelhttp.NewTransport(transport),
		// redirects are reported to the caller, never followed
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &ProviderHTTPClient{
		config: config,
		client: client,
	}
}

func (p *ProxyConfig) url() *url.URL {
	if p == nil || p.Host == "" {
		return nil
	}

	host := p.Host
	if p.Port > 0 {
		host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	u := &url.URL{Scheme: "http", Host: host}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u
}

// BaseURL returns the configured base URL
func (c *ProviderHTTPClient) BaseURL() string {
	return c.config.BaseURL
}

// SendForm sends a form-encoded POST request and returns the response
func (c *ProviderHTTPClient) SendForm(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	fullURL := c.BuildURL(req.Endpoint, req.QueryParams)

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, strings.NewReader(req.FormData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Class: classifyTransportError(err), URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Class: classifyTransportError(err), URL: fullURL, Err: err}
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
		RawBody:    string(respBody),
	}, nil
}

// classifyTransportError names the fault class of a transport failure
func classifyTransportError(err error) string {
	var netErr net.Error
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection_reset"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection_refused"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "eof"
	case errors.As(err, &opErr):
		return "socket"
	default:
		return "protocol"
	}
}

func joinURL(base, endpoint string) string {
	if strings.HasSuffix(base, "/") && strings.HasPrefix(endpoint, "/") {
		return base + endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(endpoint, "/") {
		return base + "/" + endpoint
	}
	return base + endpoint
}

// BuildURL constructs the full URL with query parameters
func (c *ProviderHTTPClient) BuildURL(endpoint string, queryParams map[string]string) string {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		fullURL = joinURL(c.config.BaseURL, endpoint)
	}

	if len(queryParams) == 0 {
		return fullURL
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	q := u.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// CreateHTTPClientConfig creates a standard HTTP client configuration for gateways
func CreateHTTPClientConfig(baseURL string, timeout time.Duration, proxy *ProxyConfig) *HTTPClientConfig {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClientConfig{
		BaseURL:   baseURL,
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Proxy:     proxy,
		DefaultHeaders: map[string]string{
			"Accept":     "application/x-www-form-urlencoded, application/json",
			"User-Agent": "gocomgate/1.0",
		},
	}
}
