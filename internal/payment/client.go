// Package payment is a client for a Stripe-compatible payment processor,
// limited to what compensation needs: read a payment intent, refund it.
package payment

import (
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

	dErrors "namecart/pkg/domain-errors"
)

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
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

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("payment base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) GetPayment(ctx context.Context, reference string) (*Payment, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment reference is required")
	}
	var wire wirePayment
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(reference), nil, "", &wire); err != nil {
		return nil, err
	}
	return &Payment{
		ID:       wire.ID,
		Status:   wire.Status,
		Amount:   fromMinorUnits(wire.Amount, wire.Currency),
		Currency: wire.Currency,
	}, nil
}

// CreateRefund refunds the full amount of a payment intent.
func (c *Client) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if req.PaymentReference == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment reference is required")
	}
	form := url.Values{}
	form.Set("payment_intent", req.PaymentReference)
	if req.Reason != "" {
		form.Set("reason", req.Reason)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var wire wireRefund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", form, req.IdempotencyKey, &wire); err != nil {
		return nil, err
	}
	return &Refund{
		ID:            wire.ID,
		Status:        wire.Status,
		Amount:        fromMinorUnits(wire.Amount, wire.Currency),
		Currency:      wire.Currency,
		PaymentIntent: wire.PaymentIntent,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build payment request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.secretKey != "" {
		req.SetBasicAuth(c.secretKey, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment processor unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read payment response")
	}

	if resp.StatusCode >= 300 {
		var we wireError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &we) == nil && we.Error.Message != "" {
			msg = we.Error.Message
		}
		c.logger.WarnContext(ctx, "payment processor error",
			"status", resp.StatusCode,
			"path", path,
			"error_type", we.Error.Type,
		)
		return dErrors.New(codeForStatus(resp.StatusCode), "payment processor: "+msg)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode payment response")
	}
	return nil
}

func codeForStatus(status int) dErrors.Code {
	switch {
	case status == http.StatusNotFound:
		return dErrors.CodeNotFound
	case status == http.StatusConflict:
		return dErrors.CodeConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return dErrors.CodeUnauthorized
	case status == http.StatusTooManyRequests || status >= 500:
		return dErrors.CodeUnavailable
	default:
		return dErrors.CodeBadRequest
	}
}
