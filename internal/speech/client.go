package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

// ServiceError reports a transport or non-200 failure from the
// recognition capability.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition service failed: %v", e.Err)
	}
	return fmt.Sprintf("recognition service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Client handles speech-recognition API calls.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new recognition client.
func NewClient(cfg config.SpeechConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	Audio  recognizeAudio  `json:"audio"`
}

type recognizeConfig struct {
	Encoding                   string          `json:"encoding"`
	SampleRateHertz            int             `json:"sample_rate_hertz"`
	LanguageCode               string          `json:"language_code"`
	EnableAutomaticPunctuation bool            `json:"enable_automatic_punctuation"`
	UseEnhanced                bool            `json:"use_enhanced"`
	Model                      string          `json:"model"`
	SpeechContexts             []speechContext `json:"speech_contexts,omitempty"`
}

type speechContext struct {
	Phrases []string `json:"phrases"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Recognize transcribes a mono 16 kHz LINEAR16 waveform. Hint phrases
// bias recognition toward expected vocabulary. Zero results means no
// speech was recognized and yields an empty transcript, not an error.
func (c *Client) Recognize(ctx context.Context, audio []byte, hints []string) (string, error) {
	reqBody := recognizeRequest{
		Config: recognizeConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            16000,
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: true,
			UseEnhanced:                true,
			Model:                      "video",
		},
		Audio: recognizeAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}
	if len(hints) > 0 {
		reqBody.Config.SpeechContexts = []speechContext{{Phrases: hints}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/audio:recognize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Results) == 0 || len(apiResp.Results[0].Alternatives) == 0 {
		c.logger.Info("Recognition returned no results")
		return "", nil
	}

	return apiResp.Results[0].Alternatives[0].Transcript, nil
}
