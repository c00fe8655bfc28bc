package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
	"github.com/matiasleandrokruk/deepsite/internal/infra/logger"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

// ============================================================================
// POST /api/ask-ai
// ============================================================================

func TestAskAIHandler_Generate_StreamsPlainText(t *testing.T) {
	t.Parallel()

	stub := &designerStub{streamText: []string{"<html>", "</html>"}}
	h := NewAskAIHandler(stub)

	body := `{"prompt":"a landing page","model":"deepseek-ai/DeepSeek-V3-0324","provider":"auto","userHfToken":"hf_abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask-ai", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Body.String() != "<html></html>" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if !rr.Flushed {
		t.Error("response was never flushed")
	}
	if stub.gotGenerate.Token != "hf_abc" || stub.gotGenerate.Provider != "auto" || stub.gotGenerate.Prompt != "a landing page" {
		t.Errorf("input = %+v", stub.gotGenerate)
	}
}

func TestAskAIHandler_Generate_ValidationFailure(t *testing.T) {
	t.Parallel()

	stub := &designerStub{prepareErr: &designer.Failure{Status: http.StatusBadRequest, ErrorText: designer.MsgInvalidModel}}
	h := NewAskAIHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/ask-ai", strings.NewReader(`{"prompt":"x","model":"nope"}`))
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeBody(t, rr)
	if got["ok"] != false || got["error"] != designer.MsgInvalidModel {
		t.Errorf("body = %v", got)
	}
	if stub.streamed {
		t.Error("Stream must not be called on validation failure")
	}
}

func TestAskAIHandler_Generate_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := NewAskAIHandler(&designerStub{})
	rr := httptest.NewRecorder()
	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/ask-ai", strings.NewReader("{")))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeBody(t, rr); got["error"] != "Invalid request body" {
		t.Errorf("body = %v", got)
	}
}

func TestAskAIHandler_Generate_WithDesignerService_AppendsFailure(t *testing.T) {
	t.Parallel()

	backend := &failingStreamBackend{err: &llm.ProviderError{StatusCode: 402, Message: "You have exceeded your monthly included credits"}}
	svc := designer.NewService(catalog.Default(), backend, designer.WithLogger(logger.Nop()))
	h := NewAskAIHandler(svc)

	body := `{"prompt":"x","model":"deepseek-ai/DeepSeek-V3-0324","userHfToken":"hf_abc"}`
	rr := httptest.NewRecorder()
	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/ask-ai", strings.NewReader(body)))

	// headers are committed before the backend answers
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeBody(t, rr)
	if got["ok"] != false || got["openProModal"] != true {
		t.Errorf("body = %v", got)
	}
}

// ============================================================================
// PUT /api/ask-ai
// ============================================================================

func TestAskAIHandler_Edit_OK(t *testing.T) {
	t.Parallel()

	stub := &designerStub{editRes: sampleEdit()}
	h := NewAskAIHandler(stub)

	body := `{"prompt":"make it blue","html":"<p>old</p>","previousPrompt":"p","provider":"novita","selectedElementHtml":"<p>old</p>","userHfToken":"hf_x"}`
	rr := httptest.NewRecorder()
	h.Edit(rr, httptest.NewRequest(http.MethodPut, "/api/ask-ai", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp editResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.HTML != "<p>new</p>" || len(resp.UpdatedLines) != 1 || resp.UpdatedLines[0] != (patch.LineRange{1, 1}) {
		t.Errorf("resp = %+v", resp)
	}
	if stub.gotEdit.SelectedElementHTML != "<p>old</p>" || stub.gotEdit.PreviousPrompt != "p" || stub.gotEdit.Token != "hf_x" {
		t.Errorf("input = %+v", stub.gotEdit)
	}
}

func TestAskAIHandler_Edit_NoChanges_EmptyArray(t *testing.T) {
	t.Parallel()

	res := sampleEdit()
	res.UpdatedLines = nil
	h := NewAskAIHandler(&designerStub{editRes: res})

	rr := httptest.NewRecorder()
	h.Edit(rr, httptest.NewRequest(http.MethodPut, "/api/ask-ai", strings.NewReader(`{"prompt":"x","html":"y"}`)))

	if !strings.Contains(rr.Body.String(), `"updatedLines":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAskAIHandler_Edit_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{"validation", &designer.Failure{Status: http.StatusBadRequest, ErrorText: designer.MsgMissingFields}, http.StatusBadRequest, "error"},
		{"rate limited", &designer.Failure{Status: http.StatusTooManyRequests, Message: designer.MsgRateLimited}, http.StatusTooManyRequests, "message"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAskAIHandler(&designerStub{editErr: tt.err})
			rr := httptest.NewRecorder()
			h.Edit(rr, httptest.NewRequest(http.MethodPut, "/api/ask-ai", strings.NewReader(`{}`)))

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rr.Code, tt.wantStatus)
			}
			got := decodeBody(t, rr)
			if got["ok"] != false {
				t.Errorf("ok = %v", got["ok"])
			}
			if s, _ := got[tt.wantKey].(string); s == "" {
				t.Errorf("%s missing in %v", tt.wantKey, got)
			}
		})
	}
}
