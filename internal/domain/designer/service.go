// Package designer runs generation and edit requests: it validates input
// against the catalog, assembles prompts, drives the inference backend and
// reports every run on the event bus.
package designer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
	"github.com/matiasleandrokruk/deepsite/internal/domain/prompts"
	"github.com/matiasleandrokruk/deepsite/internal/domain/stream"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
	pkgauth "github.com/matiasleandrokruk/deepsite/pkg/auth"
)

// Publisher receives run events.
type Publisher interface {
	Publish(topic string, payload any)
}

// GenerateInput is a request for a fresh document.
type GenerateInput struct {
	Prompt           string
	Provider         string
	Model            string
	RedesignMarkdown string
	HTML             string
	Token            string
}

// EditInput is a request to change an existing document.
type EditInput struct {
	Prompt              string
	HTML                string
	PreviousPrompt      string
	Provider            string
	SelectedElementHTML string
	Token               string
}

// GeneratePlan is a validated generation request ready to stream.
type GeneratePlan struct {
	Model    catalog.Model
	Provider catalog.Provider
	// RequestedProvider is the provider id as the caller sent it, before
	// "auto" resolution. It picks the stream policy.
	RequestedProvider string
	Messages          []llm.Message
	Token             string
}

// EditResult is the patched document.
type EditResult struct {
	patch.Result
	Model    string
	Provider string
}

// Service runs generation and edit requests.
type Service struct {
	catalog        *catalog.Catalog
	llm            llm.LLMProvider
	publisher      Publisher
	logger         *slog.Logger
	fingerprintKey []byte
	tokenOptional  bool
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where RunFinished events go.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithFingerprintKey keys the token fingerprints recorded on run events.
func WithFingerprintKey(key []byte) Option { return func(s *Service) { s.fingerprintKey = key } }

// WithTokenOptional skips token validation, for backends that take no token.
func WithTokenOptional() Option { return func(s *Service) { s.tokenOptional = true } }

// NewService creates a Service over cat and the inference backend p.
func NewService(cat *catalog.Catalog, p llm.LLMProvider, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		llm:     p,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PrepareGenerate validates in and resolves the model and provider.
// Errors are always *Failure.
func (s *Service) PrepareGenerate(in GenerateInput) (*GeneratePlan, error) {
	if in.Model == "" || (in.Prompt == "" && in.RedesignMarkdown == "") {
		return nil, badRequest(MsgMissingFields)
	}
	model, ok := s.catalog.FindModel(in.Model)
	if !ok {
		return nil, badRequest(MsgInvalidModel)
	}
	if !s.catalog.Supports(model, in.Provider) {
		return nil, unsupportedProvider(in.Provider)
	}
	if f := s.checkToken(in.Token); f != nil {
		return nil, f
	}

	return &GeneratePlan{
		Model:             model,
		Provider:          s.catalog.ResolveProvider(model, in.Provider),
		RequestedProvider: in.Provider,
		Messages:          prompts.InitialMessages(in.Prompt, in.RedesignMarkdown, in.HTML),
		Token:             in.Token,
	}, nil
}

// Stream generates a document and writes it to sink as it arrives. A
// backend failure is written to sink as a JSON Failure after whatever was
// already forwarded. sink is closed before Stream returns.
func (s *Service) Stream(ctx context.Context, plan *GeneratePlan, sink io.WriteCloser) stream.Outcome {
	defer sink.Close() //nolint:errcheck

	run := s.startRun(KindGenerate, plan.Model.Value, plan.Provider.ID, plan.Token)

	// cancelling releases the backend reader once Pump stops early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out stream.Outcome
	chunks, err := s.llm.ChatCompletionStream(ctx, llm.ChatRequest{
		Model:     plan.Model.Value,
		Provider:  plan.Provider.ID,
		Token:     plan.Token,
		Messages:  plan.Messages,
		MaxTokens: plan.Provider.MaxTokens,
	})
	if err == nil {
		term := stream.NewTerminator(plan.Model.IsThinker, plan.RequestedProvider)
		out, err = stream.Pump(ctx, chunks, term, keepOpen{sink})
	}

	run.StopReason = string(out.Reason)
	run.Fragments = out.Fragments
	run.Bytes = out.Bytes

	switch {
	case err == nil:
		run.Status = StatusOK
	case out.Reason == stream.StopCanceled || errors.Is(err, context.Canceled):
		run.Status = StatusCanceled
		run.Error = err.Error()
		if out.Reason == "" {
			run.StopReason = string(stream.StopCanceled)
		}
	default:
		run.Status = StatusFailed
		run.Error = err.Error()
		if out.Reason == "" {
			run.StopReason = string(stream.StopUpstreamErr)
		}
		s.logger.ErrorContext(ctx, "generation failed",
			"model", plan.Model.Value, "provider", plan.Provider.ID, "error", err)
		if out.Reason != stream.StopSinkErr {
			writeFailure(sink, classifyStream(err), s.logger)
		}
	}

	s.finishRun(run)
	return out
}

// Edit asks the default model for diff blocks and applies them to in.HTML.
// Errors are always *Failure.
func (s *Service) Edit(ctx context.Context, in EditInput) (*EditResult, error) {
	if in.Prompt == "" || in.HTML == "" {
		return nil, badRequest(MsgMissingFields)
	}
	if f := s.checkToken(in.Token); f != nil {
		return nil, f
	}

	model := s.catalog.DefaultModel()
	provider := s.catalog.ResolveProvider(model, in.Provider)
	run := s.startRun(KindEdit, model.Value, provider.ID, in.Token)

	req := llm.ChatRequest{
		Model:    model.Value,
		Provider: provider.ID,
		Token:    in.Token,
		Messages: prompts.FollowUpMessages(in.Prompt, in.HTML, in.PreviousPrompt, in.SelectedElementHTML),
	}
	// the trimming provider rejects large completion caps on this call
	if provider.ID != stream.TrimmingProvider {
		req.MaxTokens = provider.MaxTokens
	}

	resp, err := s.llm.ChatCompletion(ctx, req)
	if err != nil {
		run.Error = err.Error()
		run.Status = StatusFailed
		if errors.Is(err, context.Canceled) {
			run.Status = StatusCanceled
		}
		s.finishRun(run)
		s.logger.ErrorContext(ctx, "edit failed", "model", model.Value, "provider", provider.ID, "error", err)
		return nil, Classify(err)
	}
	if resp.Content == "" {
		f := &Failure{Status: http.StatusBadRequest, Message: MsgNoContent}
		run.Status = StatusFailed
		run.Error = f.Message
		s.finishRun(run)
		return nil, f
	}

	res := patch.Apply(in.HTML, resp.Content)
	run.Status = StatusOK
	run.BlocksApplied = len(res.UpdatedLines)
	run.Bytes = len(res.HTML)
	s.finishRun(run)

	return &EditResult{Result: res, Model: model.Value, Provider: provider.ID}, nil
}

// Catalog returns the catalog requests are validated against.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) checkToken(token string) *Failure {
	if s.tokenOptional {
		return nil
	}
	return checkToken(token)
}

func (s *Service) startRun(kind RunKind, model, provider, token string) *RunFinished {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &RunFinished{
		ID:               id.String(),
		Kind:             kind,
		Model:            model,
		Provider:         provider,
		TokenFingerprint: pkgauth.TokenFingerprint(s.fingerprintKey, strings.TrimSpace(token)),
		StartedAt:        s.now(),
	}
}

func (s *Service) finishRun(run *RunFinished) {
	run.Duration = s.now().Sub(run.StartedAt)
	s.logger.Info("run finished",
		"run_id", run.ID,
		"kind", run.Kind,
		"model", run.Model,
		"provider", run.Provider,
		"status", run.Status,
		"stop_reason", run.StopReason,
		"duration_ms", run.Duration.Milliseconds(),
	)
	if s.publisher != nil {
		s.publisher.Publish(TopicRunFinished, *run)
	}
}

// keepOpen hides Close from Pump so a failure can still be written after it.
type keepOpen struct{ io.Writer }

func (keepOpen) Close() error { return nil }
