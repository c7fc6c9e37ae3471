package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agriclimate-platform/internal/config"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
	"agriclimate-platform/pkg/retry"
)

// GeminiClient implements Client against the Gemini generateContent API
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	policy     retry.Policy
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewGeminiClient creates a Gemini model backend client
func NewGeminiClient(cfg config.BackendConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *GeminiClient {
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			Multiplier:  2,
		},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// geminiRequest is the generateContent request payload
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we consume
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Configured reports whether an API key is present
func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

// Generate sends one system+user instruction pair to the backend and returns
// the generated text. Transient transport and server errors are retried with
// exponential backoff; client-side errors and malformed responses fail
// immediately for this call.
func (c *GeminiClient) Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", &BackendError{Message: "API key not configured", Transient: false}
	}

	startTime := time.Now()
	var text string
	attempt := 0

	err := c.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.BackendRetriesTotal.Inc()
			c.logger.Warn(ctx, "[BACKEND_RETRY] Retrying model backend call", logging.Fields{
				"attempt": attempt,
			})
		}

		generated, err := c.generateOnce(ctx, systemInstruction, userPrompt)
		if err != nil {
			return err
		}
		text = generated
		return nil
	})

	if err != nil {
		c.logger.Error(ctx, "[BACKEND_ERROR] Model backend call failed", logging.Fields{
			"attempts":    attempt,
			"duration_ms": time.Since(startTime).Milliseconds(),
		}, err)
		return "", err
	}

	c.logger.Debug(ctx, "[BACKEND_SUCCESS] Model backend call completed", logging.Fields{
		"attempts":     attempt,
		"duration_ms":  time.Since(startTime).Milliseconds(),
		"response_len": len(text),
	})

	return text, nil
}

// generateOnce performs a single generateContent round trip
func (c *GeminiClient) generateOnce(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: userPrompt}}},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &BackendError{Message: fmt.Sprintf("failed to marshal request: %v", err), Transient: false}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &BackendError{Message: fmt.Sprintf("failed to create request: %v", err), Transient: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &BackendError{Message: fmt.Sprintf("request failed: %v", err), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Message: fmt.Sprintf("failed to read response: %v", err), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 512),
			Transient:  retryableStatus(resp.StatusCode),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &BackendError{Message: fmt.Sprintf("failed to parse response: %v", err), Transient: false}
	}

	if parsed.Error != nil {
		return "", &BackendError{
			StatusCode: parsed.Error.Code,
			Message:    parsed.Error.Message,
			Transient:  false,
		}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &BackendError{Message: "unexpected response format: no candidates returned", Transient: false}
	}

	var result strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}

	return strings.TrimSpace(result.String()), nil
}

// retryableStatus reports whether an HTTP status is safe to retry
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
