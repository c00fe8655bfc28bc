// Package stream decides, fragment by fragment, what part of a model's
// streamed HTML reaches the client and when the upstream stream can be dropped.
//
// Termination depends on two request-level facts: whether the model emits a
// reasoning segment before its answer, and whether the inference provider
// appends trailing noise after the closing document tag. Both are folded into
// a Policy once per request so the per-fragment path is a single dispatch.
package stream

import "strings"

const (
	// DocumentEndMarker closes a generated document; seeing it ends generation.
	DocumentEndMarker = "</html>"

	// ThinkEndMarker closes the reasoning segment of thinker models.
	ThinkEndMarker = "</think>"

	// TrimmingProvider streams trailing content after DocumentEndMarker that
	// must be cut before it reaches the client.
	TrimmingProvider = "sambanova"
)

// Policy selects how fragments are forwarded and when the stream stops.
type Policy int

const (
	// PolicyPlain forwards fragments verbatim and stops once the accumulated
	// output contains DocumentEndMarker.
	PolicyPlain Policy = iota
	// PolicyTrimming cuts a fragment right after DocumentEndMarker and stops.
	PolicyTrimming
	// PolicyThinking forwards everything and only honours a DocumentEndMarker
	// that follows the last ThinkEndMarker.
	PolicyThinking
)

func (p Policy) String() string {
	switch p {
	case PolicyPlain:
		return "plain"
	case PolicyTrimming:
		return "trimming"
	case PolicyThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// SelectPolicy picks the policy for a request. The thinker flag wins over the
// provider. provider is the id the caller asked for, so "auto" never trims
// even when it resolves to TrimmingProvider.
func SelectPolicy(thinker bool, provider string) Policy {
	switch {
	case thinker:
		return PolicyThinking
	case provider == TrimmingProvider:
		return PolicyTrimming
	default:
		return PolicyPlain
	}
}

// Result is the decision for one fragment.
type Result struct {
	// Forward is the text to write downstream; empty means nothing.
	Forward string
	// Accumulated is the output forwarded so far, including Forward.
	Accumulated string
	// Stop tells the caller to stop reading the upstream stream.
	Stop bool
}

// ProcessFragment is the stateless form of Policy.Process.
func ProcessFragment(fragment, accumulated string, thinker bool, provider string) Result {
	return SelectPolicy(thinker, provider).Process(fragment, accumulated)
}

// Process decides what to forward for fragment given everything forwarded before it.
func (p Policy) Process(fragment, accumulated string) Result {
	if fragment == "" {
		return Result{Accumulated: accumulated}
	}

	switch p {
	case PolicyTrimming:
		return processTrimming(fragment, accumulated)
	case PolicyThinking:
		return processThinking(fragment, accumulated)
	default:
		return processPlain(fragment, accumulated)
	}
}

func processPlain(fragment, accumulated string) Result {
	acc := accumulated + fragment
	return Result{
		Forward:     fragment,
		Accumulated: acc,
		Stop:        strings.Contains(acc, DocumentEndMarker),
	}
}

// processTrimming only inspects the current fragment, so a marker split
// across two fragments is neither trimmed nor detected.
func processTrimming(fragment, accumulated string) Result {
	i := strings.Index(fragment, DocumentEndMarker)
	if i < 0 {
		return Result{Forward: fragment, Accumulated: accumulated + fragment}
	}
	cut := fragment[:i+len(DocumentEndMarker)]
	return Result{Forward: cut, Accumulated: accumulated + cut, Stop: true}
}

// processThinking locates the reasoning close in the text accumulated before
// this fragment, then looks for the document close only after it.
func processThinking(fragment, accumulated string) Result {
	last := strings.LastIndex(accumulated, ThinkEndMarker)
	acc := accumulated + fragment
	stop := last >= 0 && strings.Contains(acc[last+len(ThinkEndMarker):], DocumentEndMarker)
	return Result{Forward: fragment, Accumulated: acc, Stop: stop}
}

// Terminator carries the policy and accumulated output of one stream.
// It is not safe for concurrent use; fragments must be fed in arrival order.
type Terminator struct {
	policy      Policy
	accumulated string
	stopped     bool
}

// NewTerminator returns a Terminator for a model/provider pair.
func NewTerminator(thinker bool, provider string) *Terminator {
	return &Terminator{policy: SelectPolicy(thinker, provider)}
}

// Policy returns the policy selected for this stream.
func (t *Terminator) Policy() Policy { return t.policy }

// Feed processes the next fragment. Once stop has been signalled every later
// call forwards nothing and keeps reporting stop.
func (t *Terminator) Feed(fragment string) (forward string, stop bool) {
	if t.stopped {
		return "", true
	}
	res := t.policy.Process(fragment, t.accumulated)
	t.accumulated = res.Accumulated
	t.stopped = res.Stop
	return res.Forward, res.Stop
}

// Stopped reports whether a terminal marker has been seen.
func (t *Terminator) Stopped() bool { return t.stopped }

// Accumulated returns everything forwarded so far.
func (t *Terminator) Accumulated() string { return t.accumulated }
