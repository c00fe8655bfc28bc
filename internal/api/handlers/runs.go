package handlers

import (
	"context"
	"net/http"

	"github.com/matiasleandrokruk/deepsite/internal/domain/history"
)

// RunLister lists recorded runs, newest first.
type RunLister interface {
	List(ctx context.Context, limit int) ([]history.Run, error)
}

type RunsHandler struct {
	runs RunLister
}

func NewRunsHandler(runs RunLister) *RunsHandler {
	return &RunsHandler{runs: runs}
}

type listRunsResponse struct {
	Runs []history.Run `json:"runs"`
}

// List handles GET /api/runs?limit=N.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, history.DefaultListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}
