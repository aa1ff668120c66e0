package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/logger"
	"github.com/wolfeidau/agrodash/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"
)

// Client issues JSON requests against the configured backends, attaching the
// session bearer token when one is available.
type Client struct {
	httpClient *http.Client
	baseURLs   map[Service]string
	tokens     oauth2.TokenSource
}

// New creates a client. tokens may be nil, in which case requests are sent
// without an Authorization header unless WithToken is used.
func New(config Config, tokens oauth2.TokenSource) (*Client, error) {
	baseURLs := map[Service]string{
		ServiceData:       config.DataURL,
		ServiceAuth:       config.AuthURL,
		ServicePrediction: config.PredictionURL,
	}

	for svc, raw := range baseURLs {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, fmt.Errorf("invalid %s base URL %q: %w", svc, raw, err)
		}
	}

	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if config.Cache {
		transport = newCachingTransport(config.CacheDir, transport)
	}
	if config.Tracing {
		transport = otelhttp.NewTransport(transport)
	}
	transport = logger.NewHTTPRequests(log.Logger, transport)

	log.Debug().
		Str("data", config.DataURL).
		Str("auth", config.AuthURL).
		Str("prediction", config.PredictionURL).
		Bool("cache", config.Cache).
		Msg("initialized api client")

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		baseURLs: baseURLs,
		tokens:   tokens,
	}, nil
}

// BaseURL returns the configured base URL of a service.
func (c *Client) BaseURL(svc Service) string {
	return c.baseURLs[svc]
}

// Request describes a single call. It is built per call and never persisted.
type Request struct {
	Method string
	Path   string
	// Body is encoded as JSON when non-nil.
	Body any
	// Service selects the base URL, BaseURL overrides it.
	Service Service
	BaseURL string
	// Token overrides the session token for this call.
	Token string
	// Anonymous sends no Authorization header and skips the token source.
	Anonymous bool
}

// RequestOption adjusts a Request built by the typed helpers.
type RequestOption func(*Request)

// WithService targets the base URL of svc.
func WithService(svc Service) RequestOption {
	return func(r *Request) {
		r.Service = svc
	}
}

// WithBaseURL targets baseURL instead of a configured service.
func WithBaseURL(baseURL string) RequestOption {
	return func(r *Request) {
		r.BaseURL = baseURL
	}
}

// WithToken sends token instead of the session token.
func WithToken(token string) RequestOption {
	return func(r *Request) {
		r.Token = token
	}
}

// WithoutToken sends the request without any bearer token.
func WithoutToken() RequestOption {
	return func(r *Request) {
		r.Anonymous = true
	}
}

// NewRequest builds a Request and applies opts.
func NewRequest(method, path string, body any, opts ...RequestOption) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// URL resolves the target of req.
func (c *Client) URL(req Request) string {
	base := req.BaseURL
	if base == "" {
		base = c.baseURLs[req.Service]
	}
	return base + req.Path
}

// Do issues req and returns the raw response body. Transport failures are
// returned as *NetworkError and non-2xx responses as *HTTPStatusError.
// Nothing is retried.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	target := c.URL(req)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	token, err := c.bearerToken(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}
	if token != nil {
		token.SetAuthHeader(httpReq)
	}

	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(
		attribute.String("service", req.Service.String()),
		attribute.String("method", req.Method),
	)
	start := time.Now()
	defer func() {
		m.RequestsTotal.Add(ctx, 1, attrs)
		m.RequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		m.RequestErrorsTotal.Add(ctx, 1, attrs)
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		m.RequestErrorsTotal.Add(ctx, 1, attrs)
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.RequestErrorsTotal.Add(ctx, 1, attrs)
		return nil, &HTTPStatusError{
			Method:     req.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}

	return data, nil
}

// bearerToken returns nil when the request should carry no Authorization header.
func (c *Client) bearerToken(req Request) (*oauth2.Token, error) {
	if req.Anonymous {
		return nil, nil
	}

	if req.Token != "" {
		return &oauth2.Token{AccessToken: req.Token, TokenType: "Bearer"}, nil
	}

	if c.tokens == nil {
		return nil, nil
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	if token == nil || token.AccessToken == "" {
		return nil, nil
	}

	return token, nil
}
