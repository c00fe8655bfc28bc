// Package history stores run metadata published by the designer service and
// lists it back for the API.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/matiasleandrokruk/deepsite/internal/domain/designer"
	"github.com/matiasleandrokruk/deepsite/internal/infra/eventbus"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500

	// fixed width so created_at sorts as text
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Run is a stored run row.
type Run struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	Model            string    `json:"model"`
	Provider         string    `json:"provider"`
	TokenFingerprint string    `json:"tokenFingerprint,omitempty"`
	Status           string    `json:"status"`
	StopReason       string    `json:"stopReason,omitempty"`
	Fragments        int       `json:"fragments"`
	Bytes            int       `json:"bytes"`
	BlocksApplied    int       `json:"blocksApplied"`
	Error            string    `json:"error,omitempty"`
	DurationMs       int64     `json:"durationMs"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Recorder persists RunFinished events.
type Recorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRecorder creates a Recorder over a migrated database.
func NewRecorder(db *sql.DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger}
}

// Start consumes designer.TopicRunFinished until ctx is done. The returned
// channel is closed once the consumer has stopped.
func (r *Recorder) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	events, cancel := bus.Subscribe(designer.TopicRunFinished)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				run, isRun := evt.Payload.(designer.RunFinished)
				if !isRun {
					r.logger.Warn("history: unexpected payload", "type", fmt.Sprintf("%T", evt.Payload))
					continue
				}
				// detached so runs finishing during shutdown are still written
				if err := r.Record(context.WithoutCancel(ctx), run); err != nil {
					r.logger.Error("history: record run", "run_id", run.ID, "error", err)
				}
			}
		}
	}()
	return done
}

// Record inserts one run.
func (r *Recorder) Record(ctx context.Context, run designer.RunFinished) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, kind, model, provider, token_fingerprint, status, stop_reason,
			fragments, bytes, blocks_applied, error, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Model, run.Provider, run.TokenFingerprint,
		string(run.Status), run.StopReason, run.Fragments, run.Bytes, run.BlocksApplied,
		run.Error, run.Duration.Milliseconds(), run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit is clamped to
// [1, MaxListLimit]; zero means DefaultListLimit.
func (r *Recorder) List(ctx context.Context, limit int) ([]Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, model, provider, token_fingerprint, status, stop_reason,
		       fragments, bytes, blocks_applied, error, duration_ms, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run       Run
			createdAt string
		)
		if err := rows.Scan(
			&run.ID, &run.Kind, &run.Model, &run.Provider, &run.TokenFingerprint,
			&run.Status, &run.StopReason, &run.Fragments, &run.Bytes, &run.BlocksApplied,
			&run.Error, &run.DurationMs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("history: parse created_at %q: %w", createdAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}
