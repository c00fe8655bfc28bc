// Package llm defines the backend-agnostic chat completion abstraction and its adapters.
// All types here are shared between the provider interface and adapters.
package llm

// Role values used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// ChatRequest is the input for a chat completion, streamed or not.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model string
	// Provider names the upstream inference provider (e.g. "novita") for
	// backends that route between several. Ignored by single-host backends.
	Provider string
	// Token is the caller's API token, forwarded as a bearer credential.
	Token       string
	Messages    []Message
	Temperature float32
	// MaxTokens caps the completion length; zero leaves it to the backend.
	MaxTokens int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion).
}

// StreamChunk is one incremental delta of a streamed completion.
type StreamChunk struct {
	// Delta is the text fragment; it may be empty on keep-alive or final chunks.
	Delta string
	// Done marks the last chunk the backend will send.
	Done bool
	// Err is set on a terminal failure; no further chunks follow it.
	Err error
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID       string // e.g. "deepseek-ai/DeepSeek-V3-0324", "llama3.2:3b"
	Provider string // e.g. "huggingface", "ollama"
}
