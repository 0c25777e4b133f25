package correct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

const systemInstruction = "You are a helpful assistant that corrects grammar and clarity."

// ServiceError reports a transport or non-200 failure from the
// correction capability.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("correction service failed: %v", e.Err)
	}
	return fmt.Sprintf("correction service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Client handles transcript-correction API calls against a chat
// completions endpoint.
type Client struct {
	endpoint  string
	apiKey    string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger
}

// NewClient creates a new correction client.
func NewClient(cfg config.CorrectionConfig, logger *zap.Logger) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Configured reports whether the correction capability is available.
// The pipeline skips the correction stage when it is not.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Correct sends the transcript for grammar and clarity correction and
// returns the cleaned text.
func (c *Client) Correct(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf("Please correct the following transcription for grammar and clarity:\n\n%s", transcript)
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", &ServiceError{StatusCode: resp.StatusCode, Body: "response contained no choices"}
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}
