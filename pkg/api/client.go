// Package api is the HTTP client for the wallet service.
//
// Every authenticated call reads the bearer token from a TokenSource at send
// time. A 401 response on such a call invokes Config.OnUnauthorized once, so
// session teardown is handled in one place for every endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NicolasHaas/gowallet/pkg/logging"
	"github.com/NicolasHaas/gowallet/pkg/version"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = rate.Limit(10)
	DefaultBurst     = 5

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// TokenSource supplies the current bearer token; "" means signed out.
type TokenSource interface {
	Token() string
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource

	// OnUnauthorized runs after an authenticated call is answered with 401,
	// or is attempted without a token.
	OnUnauthorized func()

	// OnRequest, when set, observes every completed round trip.
	OnRequest func(op string, status int, err error)

	RateLimit rate.Limit
	Burst     int
	UserAgent string
}

// Client talks to the wallet service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	userAgent  string

	onUnauthorized func()
	onRequest      func(op string, status int, err error)
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	limit, burst := cfg.RateLimit, cfg.Burst
	if limit == 0 {
		limit = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		tokens:         cfg.Tokens,
		limiter:        rate.NewLimiter(limit, burst),
		userAgent:      ua,
		onUnauthorized: cfg.OnUnauthorized,
		onRequest:      cfg.OnRequest,
	}, nil
}

// BaseURL returns the service root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op     string
	method string
	path   string
	authed bool
	in     any
	out    any
}

func (c *Client) do(ctx context.Context, cl call) error {
	var token string
	if cl.authed {
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			c.unauthorized(cl.op)
			return fmt.Errorf("api: %s: %w", cl.op, ErrNoToken)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: %s: %w", cl.op, err)
	}

	var body io.Reader
	if cl.in != nil {
		data, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("api: %s: encode request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return fmt.Errorf("api: %s: %w", cl.op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl.op, 0, err)
		return fmt.Errorf("api: %s: %w", cl.op, err)
	}
	defer resp.Body.Close()

	slog.Debug("api call", "op", cl.op, "status", resp.StatusCode, "request_id", reqID,
		"elapsed", time.Since(start), logging.Token(token))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Op: cl.op, Status: resp.StatusCode, Message: readMessage(resp.Body)}
		c.observe(cl.op, resp.StatusCode, apiErr)
		if resp.StatusCode == http.StatusUnauthorized && cl.authed {
			c.unauthorized(cl.op)
		}
		return apiErr
	}

	if cl.out != nil {
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
			err = fmt.Errorf("api: %s: %w: %w", cl.op, ErrMalformedResponse, err)
			c.observe(cl.op, resp.StatusCode, err)
			return err
		}
	}
	c.observe(cl.op, resp.StatusCode, nil)
	return nil
}

func (c *Client) unauthorized(op string) {
	slog.Warn("unauthorized response, ending session", "op", op)
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) observe(op string, status int, err error) {
	if c.onRequest != nil {
		c.onRequest(op, status, err)
	}
}

// readMessage extracts the human-readable text of an error body. The service
// uses "message"; some handlers answer with "error" instead.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
