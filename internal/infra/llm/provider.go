package llm

import "context"

// LLMProvider is the backend-agnostic interface for chat completions.
// Adapters (Hugging Face router, Ollama) implement it so the application is
// never coupled to a specific inference vendor.
type LLMProvider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ChatCompletionStream starts a streaming chat completion. The returned
	// channel yields chunks in arrival order and is closed when the stream
	// ends, fails, or ctx is cancelled. Cancelling ctx releases the upstream
	// connection; the producer never blocks on a cancelled context.
	ChatCompletionStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
