package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vaani/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel    = "gemini-2.0-flash"

	temperature     = 0.3
	maxOutputTokens = 1000
)

// APIError is a non-2xx answer from the generative-language API. The status
// code is preserved so callers can react to throttling specifically.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewClient creates a generative-language API client
func NewClient(endpoint, model, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateWithAudio sends a single instruction plus an inlined audio payload
// to the model and returns the text of the first candidate.
func (c *Client) GenerateWithAudio(ctx context.Context, instruction, audioBase64, mimeType string) (string, error) {
	reqBody := GenerateRequest{
		Contents: []Content{
			{
				Parts: []Part{
					{Text: instruction},
					{InlineData: &InlineData{
						MIMEType: mimeType,
						Data:     audioBase64,
					}},
				},
			},
		},
		GenerationConfig: GenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	logger.Debug("Calling generative-language API",
		zap.String("model", c.model),
		zap.Int("audio_bytes", len(audioBase64)))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			apiErr.Message = errResp.Error.Message
		}
		return "", apiErr
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := genResp.FirstText()

	logger.Debug("Model response received",
		zap.Int("candidates", len(genResp.Candidates)),
		zap.Int("text_length", len(text)))

	return text, nil
}

// FirstText returns the text of the first part of the first candidate, or
// the empty string when the response carries none.
func (r *GenerateResponse) FirstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
