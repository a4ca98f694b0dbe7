package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBaseURL is the default base URL for the ThreatFox API.
const DefaultBaseURL = "https://threatfox-api.abuse.ch/api/v1/"

// APIKeyHeader is the header carrying the ThreatFox API key.
const APIKeyHeader = "api-key"

// Environment variables read by the default Source.
const (
	EnvAPIKey = "THREATFOX_API_KEY"
	EnvAPIURL = "THREATFOX_API_URL"
)

// Source supplies configuration values that were not passed to Open explicitly.
type Source interface {
	APIKey() (string, bool)
	APIURL() string
	Proxy() (string, bool)
}

// envSource reads the API key and URL from the environment. It has no proxy.
type envSource struct{}

func (envSource) APIKey() (string, bool) {
	v := os.Getenv(EnvAPIKey)
	return v, v != ""
}

func (envSource) APIURL() string {
	if v := os.Getenv(EnvAPIURL); v != "" {
		return v
	}
	return DefaultBaseURL
}

func (envSource) Proxy() (string, bool) { return "", false }

// Client is a ThreatFox API client.
//
// A Client owns one HTTP session (an http.Client with its own connection
// pool). It is safe for concurrent use. Release it with Close exactly once.
type Client struct {
	apiKey     string
	defaults   RequestOptions
	transport  *http.Transport
	httpClient *http.Client
	validator  *validator
	metrics    *metrics
	closed     atomic.Bool
}

// Option is a functional option for configuring the Client.
type Option func(*options)

type options struct {
	apiKey     string
	baseURL    string
	proxy      string
	source     Source
	timeout    time.Duration
	rootCAs    *x509.CertPool
	validate   bool
	registerer prometheus.Registerer
}

// WithAPIKey sets the API key. When empty, the key comes from the Source.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = strings.TrimSpace(key)
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithProxy sets the default proxy URL used for every request.
func WithProxy(proxy string) Option {
	return func(o *options) {
		o.proxy = strings.TrimSpace(proxy)
	}
}

// WithSource sets where unset values are resolved from.
// Defaults to the THREATFOX_API_KEY and THREATFOX_API_URL environment variables.
func WithSource(src Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithHTTPTimeout sets an overall timeout for each request.
// Zero keeps the transport defaults and relies on the caller's context.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRootCAs sets the certificate pool used to verify the server.
// Verification itself cannot be disabled.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *options) {
		o.rootCAs = pool
	}
}

// WithValidation enables local validation of query payloads before they are sent.
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// WithMetrics records request counts and latencies on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// Open creates a new ThreatFox client and its HTTP session.
//
// The API key, base URL and proxy fall back to the configured Source when not
// given explicitly. Default headers are only set when an API key is known.
func Open(opts ...Option) (*Client, error) {
	o := &options{source: envSource{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.source == nil {
		o.source = envSource{}
	}

	apiKey := o.apiKey
	if apiKey == "" {
		if k, ok := o.source.APIKey(); ok {
			apiKey = strings.TrimSpace(k)
		}
	}

	headers := http.Header{}
	if apiKey != "" {
		headers.Set(APIKeyHeader, apiKey)
		headers.Set("Content-Type", "application/json")
	}

	proxy := o.proxy
	if proxy == "" {
		if p, ok := o.source.Proxy(); ok {
			proxy = strings.TrimSpace(p)
		}
	}
	if proxy != "" {
		if _, err := parseProxy(proxy); err != nil {
			return nil, &ConfigurationError{Message: "invalid proxy URL", Cause: err}
		}
	}

	base := o.baseURL
	if base == "" {
		base = strings.TrimSpace(o.source.APIURL())
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Message: fmt.Sprintf("invalid base URL %q", base), Cause: err}
	}

	c := &Client{
		apiKey: apiKey,
		defaults: RequestOptions{
			URL:     base,
			Headers: headers,
			Proxy:   proxy,
		},
	}

	if o.validate {
		v, err := newValidator()
		if err != nil {
			return nil, fmt.Errorf("building payload validator: %w", err)
		}
		c.validator = v
	}
	if o.registerer != nil {
		m, err := newMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		c.metrics = m
	}

	c.transport = &http.Transport{
		Proxy:               proxyFromContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: o.rootCAs},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	c.httpClient = &http.Client{
		Transport: c.transport,
		Timeout:   o.timeout,
	}

	return c, nil
}

// WithClient opens a client, passes it to fn and closes it on every exit path.
// A Close failure is joined with the error returned by fn.
func WithClient(ctx context.Context, fn func(context.Context, *Client) error, opts ...Option) (err error) {
	c, err := Open(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, c)
}

// Close releases the HTTP session. Closing twice returns ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.transport.CloseIdleConnections()
	return nil
}

// APIKey returns the API key in use, or "" when none is configured.
func (c *Client) APIKey() string {
	return c.apiKey
}

// BaseURL returns the URL requests are sent to by default.
func (c *Client) BaseURL() string {
	return c.defaults.URL
}

// Defaults returns a copy of the instance-level request options.
func (c *Client) Defaults() RequestOptions {
	d := c.defaults
	d.Headers = d.Headers.Clone()
	return d
}

// Execute sends a single request and returns the status code and raw body.
//
// The payload is always JSON-encoded, so a nil payload sends the literal
// null. A non-2xx status is not an error; the caller inspects the status.
func (c *Client) Execute(ctx context.Context, method string, payload any, opts ...RequestOption) (int, []byte, error) {
	if c.closed.Load() {
		return 0, nil, ErrClosed
	}

	var call RequestOptions
	for _, opt := range opts {
		opt(&call)
	}
	eff := c.defaults.merge(call)

	headers := eff.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if !hasHeader(headers, APIKeyHeader) && c.apiKey != "" {
		slog.Debug("injecting api key into headers")
		headers.Set(APIKeyHeader, c.apiKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding payload: %w", err)
	}

	if eff.Proxy != "" {
		p, err := parseProxy(eff.Proxy)
		if err != nil {
			return 0, nil, fmt.Errorf("parsing proxy URL: %w", err)
		}
		ctx = context.WithValue(ctx, proxyKey{}, p)
	}

	req, err := http.NewRequestWithContext(ctx, method, eff.URL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = headers

	query := queryOf(payload)
	requestID := uuid.NewString()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("query", query),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		c.metrics.observe(query, "error", time.Since(start))
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(query, "error", time.Since(start))
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	slog.Debug("HTTP request completed",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("url", eff.URL),
		slog.String("query", query),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	c.metrics.observe(query, strconv.Itoa(resp.StatusCode), time.Since(start))

	return resp.StatusCode, raw, nil
}

// ExecuteAndReturnObject sends a request and decodes a 200 response as JSON.
//
// Any other status yields a *StatusError without decoding the body. A body
// that is not valid UTF-8 JSON yields a *DecodeError. On success the result
// is a map[string]any or []any.
func (c *Client) ExecuteAndReturnObject(ctx context.Context, method string, payload any, opts ...RequestOption) (any, error) {
	status, raw, err := c.Execute(ctx, method, payload, opts...)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		slog.Error("ThreatFox request failed",
			slog.Int("status", status),
			slog.String("query", queryOf(payload)),
			slog.String("body", string(raw)),
		)
		return nil, &StatusError{StatusCode: status, Body: raw}
	}

	if !utf8.Valid(raw) {
		return nil, &DecodeError{Message: "response body is not valid UTF-8"}
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DecodeError{Message: "response body is not valid JSON", Cause: err}
	}
	return out, nil
}

// proxyKey carries the per-request proxy URL through the request context.
type proxyKey struct{}

func proxyFromContext(req *http.Request) (*url.URL, error) {
	if p, ok := req.Context().Value(proxyKey{}).(*url.URL); ok {
		return p, nil
	}
	return nil, nil
}

func parseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy URL %q needs a scheme and host", raw)
	}
	return u, nil
}

// hasHeader reports whether h carries name, ignoring case.
func hasHeader(h http.Header, name string) bool {
	for k, v := range h {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return true
		}
	}
	return false
}

// queryOf extracts the discriminator from a payload for logs and metrics.
func queryOf(payload any) string {
	var q any
	switch p := payload.(type) {
	case Payload:
		q = p["query"]
	case map[string]any:
		q = p["query"]
	}
	if s, ok := q.(string); ok && s != "" {
		return s
	}
	return "unknown"
}
