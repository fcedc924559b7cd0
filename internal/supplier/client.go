// Package supplier places outbound orders against the supplier API with
// bounded retries and correlation-based idempotency.
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/correlation"
	"github.com/example/replenishment-service/internal/metrics"
	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/retry"
	"github.com/example/replenishment-service/internal/util"
)

// correlationHeader carries the correlation id alongside the request body so
// the supplier can trace the order back to the originating event.
const correlationHeader = "X-Correlation-ID"

// Config holds client construction parameters.
type Config struct {
	BaseURL        string
	AttemptTimeout time.Duration
}

// Option customises the client during construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client implements the supplier order call. Before issuing a new outbound
// request it consults the correlation tracker; a recorded success for the
// same correlation id is returned as-is, making redelivery processing
// idempotent.
type Client struct {
	baseURL        string
	attemptTimeout time.Duration
	httpClient     *http.Client
	executor       *retry.Executor
	tracker        correlation.Store
	logger         zerolog.Logger
}

// NewClient validates the configuration and constructs a Client.
func NewClient(cfg Config, executor *retry.Executor, tracker correlation.Store, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL, err := util.ValidateHTTPURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("supplier client: base url: %w", err)
	}
	if executor == nil {
		return nil, errors.New("supplier client: retry executor is required")
	}
	if tracker == nil {
		return nil, errors.New("supplier client: correlation tracker is required")
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	c := &Client{
		baseURL:        baseURL,
		attemptTimeout: cfg.AttemptTimeout,
		httpClient:     &http.Client{},
		executor:       executor,
		tracker:        tracker,
		logger:         logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// PlaceOrder resolves the order request to an OrderResult. The returned bool
// reports whether the result was served from the correlation tracker without
// an outbound call. Transient supplier failures are retried by the executor;
// exhaustion surfaces as *retry.RetriesExhaustedError.
func (c *Client) PlaceOrder(ctx context.Context, req models.SupplierOrderRequest) (*models.OrderResult, bool, error) {
	cached, found, err := c.tracker.Lookup(ctx, req.CorrelationID)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("correlation_id", req.CorrelationID).
			Msg("supplier client: tracker lookup failed; proceeding with outbound call")
	}
	if found && cached.Confirmed() {
		metrics.DuplicatesSuppressedTotal.Inc()
		c.logger.Info().
			Str("correlation_id", req.CorrelationID).
			Str("order_id", cached.OrderID).
			Msg("supplier client: duplicate delivery suppressed")
		return cached, true, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, false, retry.WrapTerminal(fmt.Errorf("supplier client: encode order request: %w", err))
	}

	result, err := retry.Do(ctx, c.executor, func(ctx context.Context) (*models.OrderResult, error) {
		return c.attempt(ctx, req.CorrelationID, body)
	})
	if err != nil {
		return nil, false, err
	}

	if result.Confirmed() {
		if err := c.tracker.Record(ctx, req.CorrelationID, *result); err != nil {
			c.logger.Error().
				Err(err).
				Str("correlation_id", req.CorrelationID).
				Msg("supplier client: failed to record order result")
		}
	}

	return result, false, nil
}

func (c *Client) attempt(ctx context.Context, correlationID string, body []byte) (*models.OrderResult, error) {
	metrics.SupplierAttemptsTotal.Inc()

	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order", bytes.NewReader(body))
	if err != nil {
		return nil, retry.WrapTerminal(fmt.Errorf("supplier client: build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(correlationHeader, correlationID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, retry.WrapTransient(fmt.Errorf("supplier client: order call: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, retry.WrapTransient(fmt.Errorf("supplier client: unexpected status %d", resp.StatusCode))
	}

	var result models.OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, retry.WrapTerminal(fmt.Errorf("supplier client: decode order response: %w", err))
	}
	if result.CorrelationID == "" {
		result.CorrelationID = correlationID
	}

	c.logger.Info().
		Str("correlation_id", result.CorrelationID).
		Str("order_id", result.OrderID).
		Str("status", result.Status).
		Msg("supplier order processed")

	return &result, nil
}
