package designer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

// User-facing messages.
const (
	MsgMissingFields   = "Missing required fields"
	MsgInvalidModel    = "Invalid model selected"
	MsgMissingToken    = "Please enter your Hugging Face token in the HF Token button to use AI features."
	MsgInvalidToken    = "Invalid Hugging Face token format. Token should start with 'hf_'."
	MsgProviderTrouble = "The AI provider is currently experiencing issues. Please try switching to a different provider in Settings, or try again in a few minutes."
	MsgRateLimited     = "Rate limit exceeded. Please wait a moment and try again, or switch to a different AI provider."
	MsgGeneric         = "An error occurred while processing your request. Please try again or switch AI providers."
	MsgNoContent       = "No content returned from the model"
)

// TokenPrefix starts every Hugging Face access token.
const TokenPrefix = "hf_"

// Failure is a request failure in the shape the client renders. Validation
// failures set ErrorText; backend failures set Message. The flags tell the
// client which dialog to open.
type Failure struct {
	Status             int    `json:"-"`
	OK                 bool   `json:"ok"`
	ErrorText          string `json:"error,omitempty"`
	Message            string `json:"message,omitempty"`
	OpenProModal       bool   `json:"openProModal,omitempty"`
	OpenSelectProvider bool   `json:"openSelectProvider,omitempty"`
}

func (f *Failure) Error() string {
	if f.ErrorText != "" {
		return f.ErrorText
	}
	return f.Message
}

func badRequest(text string) *Failure {
	return &Failure{Status: http.StatusBadRequest, ErrorText: text}
}

func unsupportedProvider(provider string) *Failure {
	return &Failure{
		Status:             http.StatusBadRequest,
		ErrorText:          fmt.Sprintf("The selected model does not support the %s provider.", provider),
		OpenSelectProvider: true,
	}
}

// Classify maps a backend error to the failure shown to the user, matching
// on the error text in this order: quota exhausted, provider or transport
// trouble, rate limiting, anything else. A *Failure passes through as is.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	msg := err.Error()
	var pe *llm.ProviderError
	isProviderErr := errors.As(err, &pe)

	switch {
	case strings.Contains(msg, "exceeded your monthly included credits"):
		text := msg
		if isProviderErr && pe.Message != "" {
			text = pe.Message
		}
		return &Failure{Status: http.StatusPaymentRequired, Message: text, OpenProModal: true}
	case isProviderErr && pe.StatusCode == http.StatusTooManyRequests:
		return &Failure{Status: http.StatusTooManyRequests, Message: MsgRateLimited}
	case strings.Contains(msg, "HTTP error"), strings.Contains(msg, "Failed to perform inference"):
		return &Failure{Status: http.StatusServiceUnavailable, Message: MsgProviderTrouble, OpenSelectProvider: true}
	case isRateLimit(msg):
		return &Failure{Status: http.StatusTooManyRequests, Message: MsgRateLimited}
	default:
		if msg == "" {
			msg = MsgGeneric
		}
		return &Failure{Status: http.StatusInternalServerError, Message: msg, OpenSelectProvider: true}
	}
}

// classifyStream is Classify for a failure appended to a generation stream,
// where an unrecognised error carries no provider picker hint.
func classifyStream(err error) *Failure {
	f := Classify(err)
	if f != nil && f.Status == http.StatusInternalServerError {
		g := *f
		g.OpenSelectProvider = false
		return &g
	}
	return f
}

func isRateLimit(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests")
}

// checkToken validates the caller's inference token.
func checkToken(token string) *Failure {
	if strings.TrimSpace(token) == "" {
		return &Failure{Status: http.StatusBadRequest, Message: MsgMissingToken}
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		return &Failure{Status: http.StatusBadRequest, Message: MsgInvalidToken}
	}
	return nil
}

// writeFailure appends f as JSON to a stream already in flight.
func writeFailure(w io.Writer, f *Failure, logger *slog.Logger) {
	payload, err := json.Marshal(f)
	if err == nil {
		_, err = w.Write(payload)
	}
	if err != nil {
		logger.Warn("write failure payload", "error", err)
	}
}
