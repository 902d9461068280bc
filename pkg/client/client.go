package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request when no option overrides it.
const DefaultTimeout = 30 * time.Second

// maxMessageLen caps how much of a plain-text error body is surfaced.
const maxMessageLen = 200

// Credentials supplies the bearer token for outbound requests.
// The second return value is false when no session exists.
type Credentials interface {
	BearerToken() (string, bool)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client is the WIN777 admin API client.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a new API client. creds may be nil, in which case no request
// is authenticated.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one outbound request. It is built and discarded per call.
type call struct {
	method    string
	path      string
	query     url.Values
	body      any
	out       any
	anonymous bool // never attach the bearer token
	raw       bool // out is a *string that receives the body verbatim
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, out: out})
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: path})
}

func (c *Client) do(ctx context.Context, cl call) error {
	var reqBody io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	authenticated := false
	if !cl.anonymous && c.creds != nil {
		if token, ok := c.creds.BearerToken(); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	fields := []zap.Field{
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.String("request_id", requestID),
		zap.Bool("authenticated", authenticated),
	}

	if resp.StatusCode >= 400 {
		c.log.Warn("request rejected", fields...)
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: extractMessage(respBody)}
	}
	c.log.Debug("request done", fields...)

	if cl.out == nil {
		return nil
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}
	if cl.raw {
		s, ok := cl.out.(*string)
		if !ok {
			return fmt.Errorf("raw response needs a *string, got %T", cl.out)
		}
		*s = strings.TrimRight(string(respBody), "\r\n")
		return nil
	}
	return decodeResult(respBody, cl.out)
}

// decodeResult fills out from a response body. A *string target also accepts
// a plain-text body, which the backend sends for some scalar answers.
func decodeResult(body []byte, out any) error {
	if s, ok := out.(*string); ok {
		if json.Unmarshal(body, s) == nil {
			return nil
		}
		*s = strings.TrimSpace(string(body))
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractMessage pulls the operator-facing message out of an error body.
// Accepted shapes: {"message": ...}, {"error": ...}, a JSON string, plain text.
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(trimmed, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Error
	}
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return s
	}
	if trimmed[0] == '<' {
		// HTML error page from a proxy; nothing useful to show.
		return ""
	}
	msg := string(trimmed)
	if utf8.RuneCountInString(msg) > maxMessageLen {
		msg = string([]rune(msg)[:maxMessageLen-1]) + "…"
	}
	return msg
}

func idPath(prefix string, id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", prefix, id, suffix)
}
