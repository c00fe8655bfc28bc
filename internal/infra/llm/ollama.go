// Ollama HTTP adapter, used as a local backend for development without a
// Hugging Face token. Token and inference provider on a request are ignored.
// Endpoints used:
//   - POST /api/chat: chat completion, NDJSON when streaming
//   - GET  /api/tags: health check (lists available models)
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"

	backendOllama = "ollama"
)

// OllamaProvider implements LLMProvider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates an OllamaProvider with a 5 minute timeout for
// non-streaming calls. model is used for every request: catalog model ids
// are Hugging Face repositories Ollama does not know about.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message    Message `json:"message"`
	DoneReason string  `json:"done_reason"`
	Done       bool    `json:"done"`
	EvalCount  int     `json:"eval_count,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /api/chat.
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	respBody, err := p.postChat(ctx, p.httpClient, req, false)
	if err != nil {
		return nil, err
	}
	defer respBody.Close() //nolint:errcheck

	var ollamaResp ollamaChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&ollamaResp); decodeErr != nil {
		return nil, fmt.Errorf("ollama: decode chat response: %w", decodeErr)
	}
	return &ChatResponse{
		Content:    ollamaResp.Message.Content,
		StopReason: ollamaResp.DoneReason,
		Tokens:     ollamaResp.EvalCount,
	}, nil
}

// ChatCompletionStream streams a chat via POST /api/chat with stream=true.
// Ollama answers with one JSON object per line.
func (p *OllamaProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	// no client timeout for streaming; ctx handles cancellation
	respBody, err := p.postChat(ctx, &http.Client{}, req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)
		defer respBody.Close() //nolint:errcheck

		reader := bufio.NewReader(respBody)
		for {
			line, readErr := reader.ReadBytes('\n')
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				chunk := parseOllamaLine(line)
				if !send(ctx, chunks, chunk) || chunk.Done {
					return
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				send(ctx, chunks, StreamChunk{Err: fmt.Errorf("ollama: read stream: %w", readErr), Done: true})
				return
			}
		}
	}()

	return chunks, nil
}

func parseOllamaLine(line []byte) StreamChunk {
	var resp ollamaChatResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return StreamChunk{Err: fmt.Errorf("ollama: parse stream line: %w", err), Done: true}
	}
	if resp.Error != "" {
		return StreamChunk{Err: fmt.Errorf("ollama: Failed to perform inference: %s", resp.Error), Done: true}
	}
	return StreamChunk{Delta: resp.Message.Content, Done: resp.Done}
}

// buildChatOptions converts ChatRequest fields into Ollama options map.
func buildChatOptions(req ChatRequest) map[string]any {
	opts := map[string]any{}
	if req.Temperature != 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:       p.model,
		Provider: backendOllama,
	}
}

// HealthCheck calls GET /api/tags: returns nil if Ollama is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// postChat sends a POST /api/chat request and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *OllamaProvider) postChat(ctx context.Context, client *http.Client, req ChatRequest, stream bool) (io.ReadCloser, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    p.model,
		Messages: req.Messages,
		Stream:   stream,
		Options:  buildChatOptions(req),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama post /api/chat: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama post /api/chat: Failed to perform inference: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &ProviderError{Backend: backendOllama, StatusCode: resp.StatusCode, Message: errorText(raw)}
	}
	return resp.Body, nil
}

// Ensure OllamaProvider implements LLMProvider.
var _ LLMProvider = (*OllamaProvider)(nil)
