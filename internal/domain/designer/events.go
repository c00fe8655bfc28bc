package designer

import "time"

// TopicRunFinished is published once per generate or edit request.
const TopicRunFinished = "run.finished"

// RunKind tells generation and edit runs apart.
type RunKind string

const (
	KindGenerate RunKind = "generate"
	KindEdit     RunKind = "edit"
)

// RunStatus is the final state of a run.
type RunStatus string

const (
	StatusOK       RunStatus = "ok"
	StatusFailed   RunStatus = "failed"
	StatusCanceled RunStatus = "canceled"
)

// RunFinished describes a completed run. It never carries prompts,
// documents or the raw token.
type RunFinished struct {
	ID               string
	Kind             RunKind
	Model            string
	Provider         string
	TokenFingerprint string
	Status           RunStatus
	StopReason       string
	Fragments        int
	Bytes            int
	BlocksApplied    int
	Error            string
	Duration         time.Duration
	StartedAt        time.Time
}
