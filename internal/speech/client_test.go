package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.SpeechConfig{URL: url, APIKey: "test-key"}, zap.NewNop())
}

func TestRecognizeRequestShape(t *testing.T) {
	audio := []byte("mono 16k pcm")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio:recognize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Config.Encoding != "LINEAR16" {
			t.Errorf("unexpected encoding %q", req.Config.Encoding)
		}
		if req.Config.SampleRateHertz != 16000 {
			t.Errorf("unexpected sample rate %d", req.Config.SampleRateHertz)
		}
		if req.Config.LanguageCode != "en-US" {
			t.Errorf("unexpected language %q", req.Config.LanguageCode)
		}
		if !req.Config.EnableAutomaticPunctuation {
			t.Error("automatic punctuation not enabled")
		}
		if !req.Config.UseEnhanced || req.Config.Model != "video" {
			t.Errorf("unexpected model settings: enhanced=%v model=%q", req.Config.UseEnhanced, req.Config.Model)
		}
		if len(req.Config.SpeechContexts) != 1 || len(req.Config.SpeechContexts[0].Phrases) != 2 {
			t.Errorf("unexpected speech contexts %+v", req.Config.SpeechContexts)
		}
		if req.Audio.Content != base64.StdEncoding.EncodeToString(audio) {
			t.Error("audio content does not match uploaded waveform")
		}

		fmt.Fprint(w, `{"results":[{"alternatives":[{"transcript":"the quick brown fox","confidence":0.92}]}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	transcript, err := client.Recognize(context.Background(), audio, []string{"quick", "fox"})
	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if transcript != "the quick brown fox" {
		t.Errorf("unexpected transcript %q", transcript)
	}
}

func TestRecognizeOmitsContextsWithoutHints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Config.SpeechContexts) != 0 {
			t.Errorf("expected no speech contexts, got %+v", req.Config.SpeechContexts)
		}
		fmt.Fprint(w, `{"results":[{"alternatives":[{"transcript":"hi"}]}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Recognize(context.Background(), []byte("pcm"), nil); err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
}

func TestRecognizeNoSpeechYieldsEmptyTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	transcript, err := client.Recognize(context.Background(), []byte("silence"), nil)
	if err != nil {
		t.Fatalf("expected no error for silent audio, got %v", err)
	}
	if transcript != "" {
		t.Errorf("expected empty transcript, got %q", transcript)
	}
}

func TestRecognizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "recognition backend down")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Recognize(context.Background(), []byte("pcm"), nil)
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected status code %d", svcErr.StatusCode)
	}
}
