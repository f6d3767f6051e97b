package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
	"github.com/tradehubhq/tradehub-go/pkg/logger"
	"github.com/tradehubhq/tradehub-go/pkg/metrics"
)

const (
	requestBodyReadLimit int64 = 4096

	headerRequestID = "X-Request-ID"
)

var errBaseURLRequired = errors.New("hub base URL is required")

// TokenSource supplies the bearer token attached to each request. An empty
// return means the caller is anonymous and no Authorization header is sent.
type TokenSource func() string

// Client issues typed JSON requests against a single hub API base URL.
// Every call is a fresh round trip: no retries, no caching.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
	logger     *logger.Logger
	metrics    *metrics.ClientMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout on the built-in client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTokenSource attaches a bearer token supplier to every request.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.token = source
	}
}

// WithStaticToken attaches a fixed bearer token to every request.
func WithStaticToken(token string) Option {
	trimmed := strings.TrimSpace(token)
	return func(c *Client) {
		if trimmed != "" {
			c.token = func() string { return trimmed }
		}
	}
}

// WithLogger enables per-request structured logging.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logger = logg
	}
}

// WithMetrics records request outcomes on the provided collector.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a hub API client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// BaseURL reports the configured hub endpoint.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Do executes one JSON request and decodes the response into out when out is
// non-nil. body, when non-nil, is JSON-encoded as the request payload.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "hub client not configured")
	}

	// Metrics are labeled with the route shape, never the raw path: resource
	// ids in the path would mint a new series per id.
	operation := operationLabel(method, path)
	started := time.Now()
	err := c.do(ctx, method, path, query, body, out)
	elapsed := time.Since(started)

	c.metrics.ObserveDuration(operation, elapsed)
	if err != nil {
		c.metrics.IncFailure(operation)
		c.log(ctx, "error", operation, path, map[string]any{"error": err.Error(), "elapsed": elapsed.String()})
		return err
	}
	c.metrics.IncSuccess(operation)
	c.log(ctx, "response", operation, path, map[string]any{"elapsed": elapsed.String()})
	return nil
}

// operationLabel collapses a request path to its route shape, e.g.
// "GET /products/6f1c" becomes "GET /products/{id}".
func operationLabel(method, path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return method + " /"
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) == 1 {
		return method + " /" + segments[0]
	}
	return method + " /" + segments[0] + "/{id}"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.buildURL(path)
	if len(query) > 0 {
		target = target + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := strings.TrimSpace(c.token()); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransportUnavailable, err, fmt.Sprintf("%s %s unreachable", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, method, path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRequestFailed, err, fmt.Sprintf("decode %s %s response", method, path)).
			WithStatus(resp.StatusCode)
	}
	return nil
}

// statusError maps a non-2xx response onto the domain error taxonomy,
// surfacing a server-supplied message when one is present.
func (c *Client) statusError(resp *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
	message := serverMessage(raw)
	if message == "" {
		message = fmt.Sprintf("%s %s failed", method, path)
	}

	code := codeForStatus(resp.StatusCode)
	return pkgerrors.New(code, message).WithStatus(resp.StatusCode)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeRoleNotPermitted
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeInsufficientStock
	default:
		return pkgerrors.CodeRequestFailed
	}
}

// serverMessage extracts the error text the hub API places under "error" or
// "message" in failure payloads.
func serverMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) log(ctx context.Context, phase, operation, path string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"path":  path,
		"phase": phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithOperation(ctx, operation)
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("hub %s", operation), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("hub %s", phase))
	}
}
