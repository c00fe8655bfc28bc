package designer

import (
	"context"
	"strings"
	"sync"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

// stubLLM replays canned fragments or a canned completion and records the
// last request it saw.
type stubLLM struct {
	mu      sync.Mutex
	lastReq llm.ChatRequest

	chunks    []string
	chunkErr  error // sent after chunks
	streamErr error // returned by ChatCompletionStream

	resp        *llm.ChatResponse
	completeErr error
}

func (s *stubLLM) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	if s.resp == nil {
		return &llm.ChatResponse{}, nil
	}
	return s.resp, nil
}

func (s *stubLLM) ChatCompletionStream(_ context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	ch := make(chan llm.StreamChunk, len(s.chunks)+1)
	for _, c := range s.chunks {
		ch <- llm.StreamChunk{Delta: c}
	}
	if s.chunkErr != nil {
		ch <- llm.StreamChunk{Err: s.chunkErr, Done: true}
	}
	close(ch)
	return ch, nil
}

func (s *stubLLM) ModelInfo() llm.ModelMeta            { return llm.ModelMeta{ID: "stub", Provider: "stub"} }
func (s *stubLLM) HealthCheck(_ context.Context) error { return nil }

func (s *stubLLM) request() llm.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []RunFinished
}

func (p *recordingPublisher) Publish(topic string, payload any) {
	if topic != TopicRunFinished {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload.(RunFinished))
}

func (p *recordingPublisher) last() RunFinished {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type memSink struct {
	strings.Builder
	closed bool
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

func newTestService(l *stubLLM, opts ...Option) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	opts = append([]Option{WithPublisher(pub), WithFingerprintKey([]byte("k"))}, opts...)
	return NewService(catalog.Default(), l, opts...), pub
}
