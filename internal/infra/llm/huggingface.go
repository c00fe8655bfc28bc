// Hugging Face inference router adapter.
// The router speaks the OpenAI chat completions protocol and picks the
// upstream inference provider from a ":provider" suffix on the model id.
// Endpoints used:
//   - POST /v1/chat/completions: streamed (SSE) and non-streamed completions
//   - GET  /v1/models: health check
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultHuggingFaceBaseURL is the public inference router.
	DefaultHuggingFaceBaseURL = "https://router.huggingface.co"

	backendHuggingFace = "huggingface"
	chatCompletionsURI = "/v1/chat/completions"
	autoProvider       = "auto"
)

// HuggingFaceProvider implements LLMProvider against the Hugging Face router.
type HuggingFaceProvider struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	// streamClient has no overall timeout; the request context bounds streams.
	streamClient *http.Client
}

// HuggingFaceOption is a functional option for configuring HuggingFaceProvider.
type HuggingFaceOption func(*HuggingFaceProvider)

// WithHTTPClient sets the client used for non-streaming calls.
func WithHTTPClient(c *http.Client) HuggingFaceOption {
	return func(p *HuggingFaceProvider) { p.httpClient = c }
}

// WithStreamClient sets the client used for streaming calls.
func WithStreamClient(c *http.Client) HuggingFaceOption {
	return func(p *HuggingFaceProvider) { p.streamClient = c }
}

// WithDefaultModel sets the model used when a request leaves Model empty.
func WithDefaultModel(model string) HuggingFaceOption {
	return func(p *HuggingFaceProvider) { p.defaultModel = model }
}

// NewHuggingFaceProvider creates a provider for the router at baseURL.
func NewHuggingFaceProvider(baseURL string, opts ...HuggingFaceOption) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = DefaultHuggingFaceBaseURL
	}
	p := &HuggingFaceProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		streamClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ─── wire types ──────────────────────────────────────────────────────────────

type hfChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

type hfChatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

type hfStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error json.RawMessage `json:"error,omitempty"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming completion.
func (p *HuggingFaceProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := p.do(ctx, p.httpClient, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var out hfChatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		return nil, fmt.Errorf("huggingface: decode chat response: %w", decodeErr)
	}

	res := &ChatResponse{}
	if len(out.Choices) > 0 {
		res.Content = out.Choices[0].Message.Content
		res.StopReason = out.Choices[0].FinishReason
	}
	if out.Usage != nil {
		res.Tokens = out.Usage.TotalTokens
	}
	return res, nil
}

// ChatCompletionStream performs a streaming completion over SSE.
func (p *HuggingFaceProvider) ChatCompletionStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	resp, err := p.do(ctx, p.streamClient, req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)
		defer resp.Body.Close() //nolint:errcheck

		reader := newSSEReader(resp.Body)
		for {
			data, readErr := reader.Next()
			if errors.Is(readErr, io.EOF) {
				return
			}
			if readErr != nil {
				send(ctx, chunks, StreamChunk{Err: fmt.Errorf("huggingface: read stream: %w", readErr), Done: true})
				return
			}
			if data == sseDoneSentinel {
				send(ctx, chunks, StreamChunk{Done: true})
				return
			}

			chunk, ok := parseStreamEvent(data)
			if !send(ctx, chunks, chunk) || !ok {
				return
			}
		}
	}()

	return chunks, nil
}

// parseStreamEvent converts one SSE payload into a chunk. The bool is false
// when the chunk is terminal.
func parseStreamEvent(data string) (StreamChunk, bool) {
	var ev hfStreamEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return StreamChunk{Err: fmt.Errorf("huggingface: parse stream event: %w", err), Done: true}, false
	}
	if len(ev.Error) > 0 && string(ev.Error) != "null" {
		return StreamChunk{Err: errors.New("huggingface: Failed to perform inference: " + errorText(ev.Error)), Done: true}, false
	}
	if len(ev.Choices) == 0 {
		return StreamChunk{}, true
	}
	return StreamChunk{Delta: ev.Choices[0].Delta.Content}, true
}

// ModelInfo returns static metadata for this backend.
func (p *HuggingFaceProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.defaultModel, Provider: backendHuggingFace}
}

// HealthCheck calls GET /v1/models: returns nil if the router is reachable.
func (p *HuggingFaceProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("huggingface healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("huggingface healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// do sends the chat completion request and returns the response on 2xx.
// Caller is responsible for closing the response body.
func (p *HuggingFaceProvider) do(ctx context.Context, client *http.Client, req ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(hfChatRequest{
		Model:       p.routedModel(req),
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatCompletionsURI, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("huggingface: Failed to perform inference: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &ProviderError{
			Backend:    backendHuggingFace,
			StatusCode: resp.StatusCode,
			Message:    errorText(raw),
		}
	}
	return resp, nil
}

// routedModel appends the inference provider to the model id.
func (p *HuggingFaceProvider) routedModel(req ChatRequest) string {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if req.Provider == "" || req.Provider == autoProvider {
		return model
	}
	return model + ":" + req.Provider
}

// errorText extracts a human-readable message from an error payload, which
// may be a JSON string, an object with a "message" field, an object with an
// "error" field, or plain text.
func errorText(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)

	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return s
	}

	var obj struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(trimmed, &obj) == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if len(obj.Error) > 0 {
			return errorText(obj.Error)
		}
	}
	return string(trimmed)
}

// send delivers c unless ctx is done first. It reports whether c was sent.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- c:
		return true
	}
}

// Ensure HuggingFaceProvider implements LLMProvider.
var _ LLMProvider = (*HuggingFaceProvider)(nil)
