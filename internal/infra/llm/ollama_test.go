// Unit tests for OllamaProvider.
// Uses httptest.NewServer to mock the Ollama HTTP API, no real Ollama needed.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ============================================================================
// ChatCompletion tests
// ============================================================================

func TestOllamaProvider_ChatCompletion_Success(t *testing.T) {
	t.Parallel()

	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaChatResponse{ //nolint:errcheck
			Message:    Message{Role: "assistant", Content: "<html></html>"},
			DoneReason: "stop",
			Done:       true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:    "deepseek-ai/DeepSeek-V3-0324",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "<html></html>" {
		t.Errorf("expected '<html></html>', got %q", resp.Content)
	}
	if resp.StopReason != "stop" {
		t.Errorf("expected StopReason 'stop', got %q", resp.StopReason)
	}
	if got.Model != "llama3.2:3b" {
		t.Errorf("expected the configured model to be sent, got %q", got.Model)
	}
	if got.Stream {
		t.Error("expected stream=false")
	}
}

func TestOllamaProvider_ChatCompletion_ServerError_ReturnsProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"model not found"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	_, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	if pe.StatusCode != http.StatusBadRequest || pe.Message != "model not found" {
		t.Errorf("unexpected provider error: %+v", pe)
	}
}

// ============================================================================
// ChatCompletionStream tests
// ============================================================================

func TestOllamaProvider_Stream_YieldsLinesUntilDone(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"<html>"},"done":false}` + "\n")) //nolint:errcheck
		w.Write([]byte(`{"message":{"role":"assistant","content":"</html>"},"done":false}` + "\n")) //nolint:errcheck
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))        //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	ch, err := p.ChatCompletionStream(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("ChatCompletionStream failed: %v", err)
	}

	var text string
	var sawDone bool
	for c := range ch {
		if c.Err != nil {
			t.Fatalf("unexpected chunk error: %v", c.Err)
		}
		text += c.Delta
		sawDone = sawDone || c.Done
	}
	if text != "<html></html>" {
		t.Errorf("streamed text = %q", text)
	}
	if !sawDone {
		t.Error("expected a done chunk")
	}
}

func TestOllamaProvider_Stream_ErrorLine(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"out of memory"}` + "\n")) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	ch, err := p.ChatCompletionStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("ChatCompletionStream failed: %v", err)
	}
	c := <-ch
	if c.Err == nil {
		t.Fatal("expected chunk error")
	}
	if _, open := <-ch; open {
		t.Error("expected channel to be closed after error chunk")
	}
}

// ============================================================================
// HealthCheck tests
// ============================================================================

func TestOllamaProvider_HealthCheck_Healthy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"models": []any{}}) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy, got error: %v", err)
	}
}

func TestOllamaProvider_HealthCheck_Down_ReturnsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before the health check call.

	p := NewOllamaProvider(srv.URL, "llama3.2:3b")
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("expected error when server is down, got nil")
	}
}

// ============================================================================
// ModelInfo / buildChatOptions tests
// ============================================================================

func TestOllamaProvider_ModelInfo_ReturnsMetadata(t *testing.T) {
	t.Parallel()

	meta := NewOllamaProvider("http://localhost:11434", "llama3.2:3b").ModelInfo()
	if meta.ID != "llama3.2:3b" || meta.Provider != "ollama" {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

func TestBuildChatOptions(t *testing.T) {
	t.Parallel()

	if opts := buildChatOptions(ChatRequest{}); opts != nil {
		t.Errorf("expected nil opts when both Temperature and MaxTokens are zero, got %v", opts)
	}

	opts := buildChatOptions(ChatRequest{Temperature: 0.7, MaxTokens: 256})
	if opts["temperature"] != float32(0.7) {
		t.Errorf("expected temperature 0.7, got %v", opts["temperature"])
	}
	if opts["num_predict"] != 256 {
		t.Errorf("expected num_predict 256, got %v", opts["num_predict"])
	}
}
