package correct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

func TestConfigured(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		apiKey   string
		want     bool
	}{
		{"both set", "https://example.com/chat", "key", true},
		{"missing endpoint", "", "key", false},
		{"missing key", "https://example.com/chat", "", false},
		{"neither set", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.CorrectionConfig{Endpoint: tt.endpoint, APIKey: tt.apiKey}, zap.NewNop())
			if got := client.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorrectRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("api-key"); got != "test-key" {
			t.Errorf("unexpected api-key header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[0].Content != systemInstruction {
			t.Errorf("unexpected system message %+v", req.Messages[0])
		}
		if req.Messages[1].Role != "user" || !strings.Contains(req.Messages[1].Content, "teh quick brown fox") {
			t.Errorf("unexpected user message %+v", req.Messages[1])
		}
		if req.MaxTokens != 300 {
			t.Errorf("unexpected max_tokens %d", req.MaxTokens)
		}

		fmt.Fprint(w, `{"choices":[{"message":{"content":"  The quick brown fox.\n"}}]}`)
	}))
	defer server.Close()

	client := NewClient(config.CorrectionConfig{Endpoint: server.URL, APIKey: "test-key"}, zap.NewNop())
	corrected, err := client.Correct(context.Background(), "teh quick brown fox")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if corrected != "The quick brown fox." {
		t.Errorf("unexpected corrected text %q", corrected)
	}
}

func TestCorrectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	}))
	defer server.Close()

	client := NewClient(config.CorrectionConfig{Endpoint: server.URL, APIKey: "test-key"}, zap.NewNop())
	_, err := client.Correct(context.Background(), "some words")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("unexpected status code %d", svcErr.StatusCode)
	}
}

func TestCorrectNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := NewClient(config.CorrectionConfig{Endpoint: server.URL, APIKey: "test-key"}, zap.NewNop())
	_, err := client.Correct(context.Background(), "some words")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError for empty choices, got %v", err)
	}
}
