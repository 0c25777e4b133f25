package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

// baselineWPM is the speaking pace the synthesis voice uses at rate 1.0.
const baselineWPM = 150.0

// Speaking-rate multiplier bounds accepted by the synthesis capability.
const (
	minRate = 0.25
	maxRate = 4.0
)

// ErrEmptyText is returned when synthesis is requested for empty text.
// The check happens before any network call is made.
var ErrEmptyText = errors.New("synthesis text is empty")

// ServiceError reports a transport or non-200 failure from the
// synthesis capability.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis service failed: %v", e.Err)
	}
	return fmt.Sprintf("synthesis service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// SpeakingRate derives the rate multiplier from the desired words per
// minute, clamped to the range the synthesis capability accepts.
func SpeakingRate(wpm int) float64 {
	rate := float64(wpm) / baselineWPM
	if rate < minRate {
		return minRate
	}
	if rate > maxRate {
		return maxRate
	}
	return rate
}

// Client handles speech-synthesis API calls.
type Client struct {
	baseURL    string
	apiKey     string
	voice      string
	sampleRate int
	client     *http.Client
	logger     *zap.Logger
}

// NewClient creates a new synthesis client.
func NewClient(cfg config.SynthesisConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		voice:      cfg.Voice,
		sampleRate: cfg.SampleRate,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

type synthesizeRequest struct {
	Input       synthesisInput `json:"input"`
	Voice       voiceParams    `json:"voice"`
	AudioConfig audioConfig    `json:"audio_config"`
}

type synthesisInput struct {
	Text string `json:"text"`
}

type voiceParams struct {
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

type audioConfig struct {
	AudioEncoding   string  `json:"audio_encoding"`
	SpeakingRate    float64 `json:"speaking_rate"`
	SampleRateHertz int     `json:"sample_rate_hertz,omitempty"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audio_content"`
}

// Synthesize converts text to a linear-PCM waveform at the speaking
// rate derived from wpm. Empty text is rejected up front.
func (c *Client) Synthesize(ctx context.Context, text string, wpm int) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	rate := SpeakingRate(wpm)
	reqBody := synthesizeRequest{
		Input: synthesisInput{Text: text},
		Voice: voiceParams{
			LanguageCode: "en-US",
			Name:         c.voice,
		},
		AudioConfig: audioConfig{
			AudioEncoding:   "LINEAR16",
			SpeakingRate:    rate,
			SampleRateHertz: c.sampleRate,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text:synthesize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Info("Requesting synthesis",
		zap.Float64("speaking_rate", rate),
		zap.String("voice", c.voice),
		zap.Int("text_len", len(text)),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(apiResp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: "response contained no audio"}
	}

	return audio, nil
}
