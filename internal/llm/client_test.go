package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	client, err := NewClient(ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("NewClient should fail without API key")
	}
	expected := "ANTHROPIC_API_KEY environment variable is not set"
	if err.Error() != expected {
		t.Errorf("Error = %q, want %q", err.Error(), expected)
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaude3_5HaikuLatest {
		t.Errorf("Default model = %q, want %q", client.Model(), anthropic.ModelClaude3_5HaikuLatest)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("translateModelForBedrock = %q", got)
	}
	custom := anthropic.Model("my-custom-profile")
	if translateModelForBedrock(custom) != custom {
		t.Error("unknown models should pass through unchanged")
	}
}

func messagesServer(t *testing.T, status int, text string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
			return
		}
		content := []map[string]any{}
		if text != "" {
			content = append(content, map[string]any{"type": "text", "text": text})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-haiku-latest",
			"content":     content,
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 12, "output_tokens": 7},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Complete(t *testing.T) {
	srv := messagesServer(t, http.StatusOK, `{"action":"list_events","lookahead_days":7}`, 0)
	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "what's on?", MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != `{"action":"list_events","lookahead_days":7}` {
		t.Errorf("Complete text = %q", text)
	}
	in, out := client.Tracker().Total()
	if in != 12 || out != 7 || client.Tracker().Calls() != 1 {
		t.Errorf("tracker = (%d, %d, %d calls)", in, out, client.Tracker().Calls())
	}
}

func TestClient_Complete_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := messagesServer(t, http.StatusServiceUnavailable, "", 0)
		client, _ := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL})
		if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
			t.Fatal("expected error on 503")
		}
	})

	t.Run("empty content", func(t *testing.T) {
		srv := messagesServer(t, http.StatusOK, "", 0)
		client, _ := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL})
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		if !errors.Is(err, ErrEmptyCompletion) {
			t.Fatalf("err = %v, want ErrEmptyCompletion", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := messagesServer(t, http.StatusOK, "late", 2*time.Second)
		client, _ := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL})
		_, err := client.Complete(context.Background(), Request{Prompt: "hi", Timeout: 50 * time.Millisecond})
		if err == nil {
			t.Fatal("expected timeout error")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Logf("timeout surfaced as %v", err)
		}
	})
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 100)

	input, output := tracker.Total()
	if input != 300 || output != 150 {
		t.Errorf("Total = (%d, %d), want (300, 150)", input, output)
	}
	if tracker.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", tracker.Calls())
	}

	tracker.Reset()
	input, output = tracker.Total()
	if input != 0 || output != 0 || tracker.Calls() != 0 {
		t.Error("Reset should clear all counters")
	}
}
