package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"smartcs-backend/internal/llm"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  {\"ok\": true}\n"}}]
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing model", opts: Options{APIKey: "k"}},
		{name: "missing key", opts: Options{Model: "gpt-4o-mini"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.opts); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCompleteSendsImagePartAndReturnsRawContent(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	img := &llm.InlineImage{MIMEType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nrest")}
	text, err := client.Complete(context.Background(), llm.Request{
		Role:      llm.RoleVision,
		Prompt:    "describe",
		Image:     img,
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "  {\"ok\": true}\n" {
		t.Fatalf("expected unmodified content, got %q", text)
	}

	if captured["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", captured["model"])
	}
	if captured["max_tokens"] != float64(500) {
		t.Fatalf("unexpected max_tokens: %v", captured["max_tokens"])
	}
	if _, ok := captured["temperature"]; ok {
		t.Fatalf("expected provider default temperature, got %v", captured["temperature"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	content, _ := messages[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expected text and image parts, got %v", messages[0])
	}
	imagePart, _ := content[1].(map[string]any)
	if imagePart["type"] != "image_url" {
		t.Fatalf("expected image_url part, got %v", imagePart)
	}
	url, _ := imagePart["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected image url %q", url)
	}
}

func TestCompleteSendsSchemaResponseFormat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	type shape struct {
		Disease string `json:"disease"`
	}
	client := newTestClient(t, srv)
	_, err := client.Complete(context.Background(), llm.Request{
		Role:        llm.RoleText,
		Prompt:      "x",
		Temperature: 0.7,
		Schema:      llm.SchemaFor[shape]("plant_analysis", "plant"),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if captured["temperature"] != 0.7 {
		t.Fatalf("unexpected temperature: %v", captured["temperature"])
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", captured["response_format"])
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["name"] != "plant_analysis" || schema["strict"] != true {
		t.Fatalf("unexpected json_schema param: %v", schema)
	}
}

func TestCompleteMapsUpstreamFailureWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Complete(context.Background(), llm.Request{Role: llm.RoleText, Prompt: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var gwErr *llm.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T: %v", err, err)
	}
	if gwErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", gwErr.Status)
	}
	if gwErr.Provider != "openai" {
		t.Fatalf("unexpected provider %q", gwErr.Provider)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly 1 upstream call, got %d", n)
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	client, err := NewClient(Options{APIKey: "k", Model: "m", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Complete(context.Background(), llm.Request{Prompt: "  "})
	if !errors.Is(err, llm.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}
