package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/openai/openai-go"

	"github.com/quillworks/redline/core/errors"
)

// fastRetry keeps the retry loop quick enough for tests.
func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1,
		MaxBackoff:        time.Millisecond,
	}
}

func completionBody(t *testing.T, content string) string {
	t.Helper()
	quoted, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test-model",`+
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}]}`, quoted)
}

func newTestClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Retry:   fastRetry(),
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	return client
}

func TestNewOpenAIClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing api key", Config{Model: "gpt-4o"}},
		{"missing model", Config{APIKey: "key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOpenAIClient(tt.cfg); !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("NewOpenAIClient() error = %v, want validation error", err)
			}
		})
	}

	client, err := NewOpenAIClient(Config{APIKey: "key", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	if client.Model() != "gpt-4o" {
		t.Errorf("Model() = %q, want %q", client.Model(), "gpt-4o")
	}
}

func TestCompleteSendsChatRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q, want chat completions endpoint", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test key", got)
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want %q", req.Model, "test-model")
		}
		if req.Temperature != 0.1 {
			t.Errorf("temperature = %v, want 0.1", req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		} else {
			if req.Messages[0].Content != "be careful" {
				t.Errorf("system content = %q, want %q", req.Messages[0].Content, "be careful")
			}
			if req.Messages[1].Content != "fix this" {
				t.Errorf("user content = %q, want %q", req.Messages[1].Content, "fix this")
			}
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(t, "all fixed"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.Complete(context.Background(), Request{
		System:      "be careful",
		User:        "fix this",
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "all fixed" {
		t.Errorf("Complete() = %q, want %q", got, "all fixed")
	}
}

func TestCompleteRetriesEmptyChoices(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), Request{User: "fix this"})
	if err == nil {
		t.Fatal("Complete() error = nil, want transient failure")
	}
	if !IsTransient(err) {
		t.Errorf("IsTransient() = false, want true")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("request count = %d, want 3 attempts", got)
	}
}

func TestCompleteFatalShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"model does not exist","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), Request{User: "fix this"})
	if err == nil {
		t.Fatal("Complete() error = nil, want fatal failure")
	}
	if !IsFatal(err) {
		t.Errorf("IsFatal() = false, want true")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("request count = %d, want 1 for a fatal error", got)
	}
}

func TestCompleteContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Retry: RetryConfig{
			MaxAttempts:       3,
			BackoffBase:       time.Hour,
			BackoffMultiplier: 1,
			MaxBackoff:        time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, Request{User: "fix this"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Complete() error = %v, want deadline exceeded", err)
	}
}

func TestClassify(t *testing.T) {
	apiErr := func(status int) error {
		return &openai.Error{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil),
		}
	}
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"request timeout", apiErr(http.StatusRequestTimeout), true},
		{"rate limited", apiErr(http.StatusTooManyRequests), true},
		{"server error", apiErr(http.StatusInternalServerError), true},
		{"bad gateway", apiErr(http.StatusBadGateway), true},
		{"bad request", apiErr(http.StatusBadRequest), false},
		{"unauthorized", apiErr(http.StatusUnauthorized), false},
		{"not found", apiErr(http.StatusNotFound), false},
		{"transport failure", fmt.Errorf("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify(tt.err)
			if got := IsTransient(classified); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if got := IsFatal(classified); got == tt.transient {
				t.Errorf("IsFatal() = %v, want %v", got, !tt.transient)
			}
		})
	}
}

func TestRetryConfigBackoff(t *testing.T) {
	rc := DefaultRetryConfig()
	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i := 0; i < 20; i++ {
		for attempt := 1; attempt <= 3; attempt++ {
			got := rc.backoff(attempt)
			base := expected[attempt-1]
			lo := time.Duration(float64(base) * 0.75)
			hi := time.Duration(float64(base) * 1.25)
			if got < lo || got > hi {
				t.Fatalf("backoff(%d) = %v, want within [%v, %v]", attempt, got, lo, hi)
			}
		}
	}

	// Deep attempts stay capped at MaxBackoff plus jitter.
	hi := time.Duration(float64(rc.MaxBackoff) * 1.25)
	for i := 0; i < 20; i++ {
		if got := rc.backoff(10); got > hi {
			t.Fatalf("backoff(10) = %v, want at most %v", got, hi)
		}
	}
}
