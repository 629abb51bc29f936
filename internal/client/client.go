// Package client is the proxy client for the translation endpoint: a
// generic send-JSON, get-JSON helper that retries on throttling. It knows
// nothing about audio semantics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"vaani/pkg/logger"
	"vaani/pkg/model"
	"vaani/pkg/resilience"

	"go.uber.org/zap"
)

const translatePath = "/api/translate"

// RateLimitExhaustedMessage is surfaced after every attempt came back
// throttled, so callers can distinguish it from a generic failure.
const RateLimitExhaustedMessage = "API rate limit exceeded. Please wait a moment and try again. Consider getting a paid Gemini API key for higher limits."

// RateLimitError is a throttled response from the endpoint.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ServiceError is a non-throttling error response from the endpoint.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	client  *http.Client
	retry   *resilience.RetryConfig
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRetryConfig replaces the retry schedule.
func WithRetryConfig(cfg *resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a proxy client for the endpoint at baseURL. The default
// policy is 3 attempts total with 1s/2s waits after rate-limited responses,
// capped at 8s; other failures fall through to the next attempt with no
// delay.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Translate sends the request and returns the endpoint's result. The error
// of the last attempt propagates once attempts are exhausted; persistent
// throttling is reported as a RateLimitError with quota guidance.
func (c *Client) Translate(ctx context.Context, req model.TranslationRequest) (model.TranslationResult, error) {
	var result model.TranslationResult

	err := resilience.RetryWithBackoffOn(ctx, c.retry, isRateLimited, func() error {
		attemptResult, err := c.attempt(ctx, req)
		if err != nil {
			return err
		}
		result = attemptResult
		return nil
	})

	if err != nil {
		if isRateLimited(err) {
			return model.TranslationResult{}, &RateLimitError{Message: RateLimitExhaustedMessage}
		}
		return model.TranslationResult{}, err
	}

	return result, nil
}

func (c *Client) attempt(ctx context.Context, req model.TranslationRequest) (model.TranslationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+translatePath, bytes.NewReader(body))
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.Debug("Endpoint rate limited", zap.String("body", string(respBody)))
		return model.TranslationResult{}, &RateLimitError{Message: errorMessage(respBody, "rate limited")}
	}

	if resp.StatusCode != http.StatusOK {
		return model.TranslationResult{}, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, "Translation failed"),
		}
	}

	var result model.TranslationResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return model.TranslationResult{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result, nil
}

func isRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// errorMessage pulls the error field out of an endpoint error body.
func errorMessage(body []byte, fallback string) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return fallback
}
