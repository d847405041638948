// Package registrar is a typed client for the external domain registrar API.
// Responses are validated at this boundary; callers branch on Category
// instead of re-reading HTTP status codes.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"namecart/pkg/platform/circuit"
)

const maxResponseBytes = 1 << 20

// LatencyObserver receives per-call latency.
type LatencyObserver interface {
	ObserveRegistrar(call string, seconds float64)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuit.Breaker
	observer   LatencyObserver
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func WithLatencyObserver(o LatencyObserver) Option {
	return func(cl *Client) {
		cl.observer = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("registrar base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse registrar base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetDomain returns the registrar's view of a domain. A 404 is reported as
// CategoryNotFound.
func (c *Client) GetDomain(ctx context.Context, name string) (*DomainRecord, error) {
	var rec DomainRecord
	if err := c.do(ctx, "get_domain", http.MethodGet, "/domains/"+url.PathEscape(name), nil, &rec); err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, newError(CategoryBadData, "get_domain", 0, "", err)
	}
	if rec.Name == "" {
		rec.Name = name
	}
	return &rec, nil
}

func (c *Client) Register(ctx context.Context, name string) (*Operation, error) {
	return c.operation(ctx, "register", http.MethodPost, "/domains", registerRequest{Name: name})
}

// Transfer moves ownership to a user wallet.
func (c *Client) Transfer(ctx context.Context, name, wallet string) (*Operation, error) {
	body := transferRequest{Owner: Owner{Type: OwnerUser, Address: wallet}}
	return c.operation(ctx, "transfer", http.MethodPatch, "/domains/"+url.PathEscape(name), body)
}

// Return releases a domain held by this account back to the pool.
func (c *Client) Return(ctx context.Context, name string) (*Operation, error) {
	return c.operation(ctx, "return", http.MethodPost, "/domains/"+url.PathEscape(name)+"/return", nil)
}

func (c *Client) GetOperation(ctx context.Context, id string) (*Operation, error) {
	var op Operation
	if err := c.do(ctx, "get_operation", http.MethodGet, "/operations/"+url.PathEscape(id), nil, &op); err != nil {
		return nil, err
	}
	if err := op.validate(); err != nil {
		return nil, newError(CategoryBadData, "get_operation", 0, "", err)
	}
	return &op, nil
}

func (c *Client) operation(ctx context.Context, call, method, path string, body any) (*Operation, error) {
	var env operationEnvelope
	if err := c.do(ctx, call, method, path, body, &env); err != nil {
		return nil, err
	}
	if env.Operation == nil {
		return nil, newError(CategoryBadData, call, 0, "response has no operation", nil)
	}
	if err := env.Operation.validate(); err != nil {
		return nil, newError(CategoryBadData, call, 0, "", err)
	}
	return env.Operation, nil
}

func (c *Client) do(ctx context.Context, call, method, path string, body, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return newError(CategoryCircuitOpen, call, 0, "registrar circuit is open", nil)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", call, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", call, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observer != nil {
		c.observer.ObserveRegistrar(call, time.Since(start).Seconds())
	}
	if err != nil {
		c.recordFailure(ctx, call)
		return newError(CategoryTransient, call, 0, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure(ctx, call)
		return newError(CategoryTransient, call, resp.StatusCode, "read body", err)
	}

	if resp.StatusCode >= 300 {
		category := categorize(resp.StatusCode)
		if category == CategoryTransient {
			c.recordFailure(ctx, call)
		} else {
			c.recordSuccess(ctx)
		}
		return newError(category, call, resp.StatusCode, errorMessage(raw), nil)
	}
	c.recordSuccess(ctx)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newError(CategoryBadData, call, resp.StatusCode, "decode response", err)
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context, call string) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "registrar circuit opened", "breaker", c.breaker.Name(), "call", call)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "registrar circuit closed", "breaker", c.breaker.Name())
	}
}

// errorMessage pulls a short message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
