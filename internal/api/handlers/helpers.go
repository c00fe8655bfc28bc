package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
	mimePlainText     = "text/plain; charset=utf-8"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes {"error": message} with the given status.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeFailure writes a designer failure in the shape the client renders.
// Errors that are not failures become a generic 500.
func writeFailure(w http.ResponseWriter, err error) {
	var f *designer.Failure
	if !errors.As(err, &f) {
		f = designer.Classify(err)
	}
	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, f)
}

// parseLimit reads the "limit" query parameter. Absent means fallback.
func parseLimit(r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
