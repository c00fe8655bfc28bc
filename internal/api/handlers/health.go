package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

const healthTimeout = 5 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	backend llm.LLMProvider
}

// NewHealthHandler creates a HealthHandler. db may be nil when run history
// is disabled.
func NewHealthHandler(db Pinger, backend llm.LLMProvider) *HealthHandler {
	return &HealthHandler{db: db, backend: backend}
}

// Live handles GET /health. It never touches dependencies.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready: the database and the inference backend
// must both answer.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	meta := h.backend.ModelInfo()
	checks["backend"] = "ok"
	if err := h.backend.HealthCheck(ctx); err != nil {
		checks["backend"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  state,
		"backend": meta.Provider,
		"model":   meta.ID,
		"checks":  checks,
	})
}
