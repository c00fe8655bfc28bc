package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
	"github.com/matiasleandrokruk/deepsite/internal/domain/history"
	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
	"github.com/matiasleandrokruk/deepsite/internal/domain/stream"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

type designerStub struct {
	gotGenerate designer.GenerateInput
	gotEdit     designer.EditInput

	prepareErr error
	streamText []string
	streamed   bool

	editRes *designer.EditResult
	editErr error
}

func (s *designerStub) PrepareGenerate(in designer.GenerateInput) (*designer.GeneratePlan, error) {
	s.gotGenerate = in
	if s.prepareErr != nil {
		return nil, s.prepareErr
	}
	return &designer.GeneratePlan{Model: catalog.Model{Value: in.Model}}, nil
}

func (s *designerStub) Stream(_ context.Context, _ *designer.GeneratePlan, sink io.WriteCloser) stream.Outcome {
	defer sink.Close() //nolint:errcheck
	s.streamed = true
	var out stream.Outcome
	for _, t := range s.streamText {
		n, _ := io.WriteString(sink, t)
		out.Fragments++
		out.Bytes += n
	}
	out.Reason = stream.StopEndOfStream
	return out
}

func (s *designerStub) Edit(_ context.Context, in designer.EditInput) (*designer.EditResult, error) {
	s.gotEdit = in
	if s.editErr != nil {
		return nil, s.editErr
	}
	return s.editRes, nil
}

type runListerStub struct {
	gotLimit int
	runs     []history.Run
	err      error
}

func (s *runListerStub) List(_ context.Context, limit int) ([]history.Run, error) {
	s.gotLimit = limit
	return s.runs, s.err
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

type backendStub struct {
	healthErr error
	chunks    []string
}

func (b *backendStub) ChatCompletion(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (b *backendStub) ChatCompletionStream(context.Context, llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, len(b.chunks))
	for _, c := range b.chunks {
		ch <- llm.StreamChunk{Delta: c}
	}
	close(ch)
	return ch, nil
}

func (b *backendStub) ModelInfo() llm.ModelMeta {
	return llm.ModelMeta{ID: "deepseek-ai/DeepSeek-V3-0324", Provider: "huggingface"}
}

func (b *backendStub) HealthCheck(context.Context) error { return b.healthErr }

// sampleEdit is an edit result with one applied block.
func sampleEdit() *designer.EditResult {
	return &designer.EditResult{
		Result: patch.Result{HTML: "<p>new</p>", UpdatedLines: []patch.LineRange{{1, 1}}},
	}
}

// failingStreamBackend refuses to open a stream.
type failingStreamBackend struct {
	backendStub
	err error
}

func (b *failingStreamBackend) ChatCompletionStream(context.Context, llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	return nil, b.err
}
