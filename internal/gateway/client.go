// Package gateway wraps the LewLew admin REST API. Every call returns a
// typed payload or a *Error from a closed taxonomy; no failure mode leaks
// past this boundary as a panic or an untyped transport error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tangled.org/lewlew.social/lewctl/internal/metrics"
	"tangled.org/lewlew.social/lewctl/internal/tracing"
)

// CredentialStore is the persistent home of the bearer token. The gateway
// reads it before every authenticated call and writes it after a
// successful login; it never caches the token in memory.
type CredentialStore interface {
	Token() (string, error)
	SetToken(token string) error
}

// Client issues requests against the admin API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialStore
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Used by tests to
// point at an httptest server without the instrumented transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger overrides the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a gateway client for the given base URL. The transport is
// wrapped with otelhttp so every outbound call produces a client span.
// No client-side timeout is applied; calls settle per the transport's own
// behavior, and callers cancel through ctx if they need a bound.
func New(baseURL string, creds CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		creds: creds,
		log:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one outbound request.
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	authed   bool
	endpoint string // stable label for metrics, spans and logs
	fallback string // error message when the body carries no message field
}

// errorBody is the structured error envelope the API sends on non-2xx.
type errorBody struct {
	Message string `json:"message"`
}

// do issues the request and decodes a 2xx body into out (when non-nil).
// All failure paths return a *Error.
func (c *Client) do(ctx context.Context, req call, out any) error {
	var token string
	if req.authed {
		t, err := c.creds.Token()
		if err != nil || t == "" {
			// Checked before the call to avoid a wasted round trip.
			return authError(req.endpoint, missingCredentialMessage, 0)
		}
		token = t
	}

	var bodyReader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return serverError(req.endpoint, req.fallback, 0)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	ctx, span := tracing.GatewaySpan(ctx, req.method, req.endpoint)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, bodyReader)
	if err != nil {
		return serverError(req.endpoint, req.fallback, 0)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	metrics.APIRequestDuration.WithLabelValues(req.endpoint).Observe(duration.Seconds())

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.endpoint, "0").Inc()
		metrics.APITransportErrorsTotal.Inc()
		terr := transportError(req.endpoint)
		tracing.EndWithError(span, terr)
		c.log.Warn().
			Str("endpoint", req.endpoint).
			Str("request_id", requestID).
			Dur("duration", duration).
			Err(err).
			Msg("gateway: transport failure")
		return terr
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(req.endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := transportError(req.endpoint)
		tracing.EndWithError(span, terr)
		return terr
	}

	c.log.Debug().
		Str("endpoint", req.endpoint).
		Str("method", req.method).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("gateway: request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := req.fallback
		var envelope errorBody
		if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
			message = envelope.Message
		}

		var gerr *Error
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			gerr = authError(req.endpoint, message, resp.StatusCode)
		} else {
			gerr = serverError(req.endpoint, message, resp.StatusCode)
		}
		tracing.EndWithError(span, gerr)
		return gerr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			// An unreadable success body is indistinguishable from a
			// broken connection as far as the caller is concerned.
			terr := transportError(req.endpoint)
			tracing.EndWithError(span, terr)
			return terr
		}
	}

	return nil
}
