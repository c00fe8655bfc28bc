package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
	"github.com/matiasleandrokruk/deepsite/internal/domain/stream"
)

// DesignerService is the part of designer.Service the ask-ai endpoint uses.
type DesignerService interface {
	PrepareGenerate(in designer.GenerateInput) (*designer.GeneratePlan, error)
	Stream(ctx context.Context, plan *designer.GeneratePlan, sink io.WriteCloser) stream.Outcome
	Edit(ctx context.Context, in designer.EditInput) (*designer.EditResult, error)
}

type AskAIHandler struct {
	designer DesignerService
}

func NewAskAIHandler(d DesignerService) *AskAIHandler {
	return &AskAIHandler{designer: d}
}

type generateRequest struct {
	Prompt           string `json:"prompt"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	RedesignMarkdown string `json:"redesignMarkdown"`
	HTML             string `json:"html"`
	UserHFToken      string `json:"userHfToken"`
}

type editRequest struct {
	Prompt              string `json:"prompt"`
	HTML                string `json:"html"`
	PreviousPrompt      string `json:"previousPrompt"`
	Provider            string `json:"provider"`
	SelectedElementHTML string `json:"selectedElementHtml"`
	UserHFToken         string `json:"userHfToken"`
}

type editResponse struct {
	OK           bool              `json:"ok"`
	HTML         string            `json:"html"`
	UpdatedLines []patch.LineRange `json:"updatedLines"`
}

var errStreamingUnsupported = errors.New("response writer does not implement http.Flusher")

var errInvalidBody = &designer.Failure{Status: http.StatusBadRequest, ErrorText: "Invalid request body"}

// Generate handles POST /api/ask-ai: validation failures are JSON, a valid
// request gets the generated document streamed back as plain text.
func (h *AskAIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, errInvalidBody)
		return
	}

	plan, err := h.designer.PrepareGenerate(designer.GenerateInput{
		Prompt:           req.Prompt,
		Provider:         req.Provider,
		Model:            req.Model,
		RedesignMarkdown: req.RedesignMarkdown,
		HTML:             req.HTML,
		Token:            req.UserHFToken,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}

	sink, err := prepareTextStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	h.designer.Stream(r.Context(), plan, sink)
}

// Edit handles PUT /api/ask-ai.
func (h *AskAIHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, errInvalidBody)
		return
	}

	res, err := h.designer.Edit(r.Context(), designer.EditInput{
		Prompt:              req.Prompt,
		HTML:                req.HTML,
		PreviousPrompt:      req.PreviousPrompt,
		Provider:            req.Provider,
		SelectedElementHTML: req.SelectedElementHTML,
		Token:               req.UserHFToken,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}

	lines := res.UpdatedLines
	if lines == nil {
		lines = []patch.LineRange{}
	}
	writeJSON(w, http.StatusOK, editResponse{OK: true, HTML: res.HTML, UpdatedLines: lines})
}

// flushWriter pushes every write to the client immediately.
type flushWriter struct {
	bw      *bufio.Writer
	flusher http.Flusher
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.bw.Write(p)
	if err != nil {
		return n, err
	}
	if err := f.bw.Flush(); err != nil {
		return n, err
	}
	f.flusher.Flush()
	return n, nil
}

func (f *flushWriter) Close() error {
	if err := f.bw.Flush(); err != nil {
		return err
	}
	f.flusher.Flush()
	return nil
}

func prepareTextStream(w http.ResponseWriter) (*flushWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set(headerContentType, mimePlainText)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &flushWriter{bw: bufio.NewWriter(w), flusher: flusher}, nil
}
