package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

// StopReason explains why Pump returned.
type StopReason string

const (
	StopTerminal    StopReason = "terminal"
	StopEndOfStream StopReason = "end_of_stream"
	StopCanceled    StopReason = "canceled"
	StopUpstreamErr StopReason = "upstream_error"
	StopSinkErr     StopReason = "sink_error"
)

// Outcome summarises a pumped stream.
type Outcome struct {
	Reason    StopReason
	Fragments int // fragments received from upstream
	Bytes     int // bytes written to the sink
}

// Pump reads fragments in arrival order, feeds them to term and writes the
// forwarded text to sink. It returns as soon as term signals stop, the channel
// is closed, a chunk carries an error or ctx is done. sink is closed on every
// exit path.
//
// Pump does not drain fragments after it returns; the caller must cancel the
// context that produced them so the upstream reader is released.
func Pump(ctx context.Context, fragments <-chan llm.StreamChunk, term *Terminator, sink io.WriteCloser) (out Outcome, err error) {
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close sink: %w", cerr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			out.Reason = StopCanceled
			return out, ctx.Err()
		case chunk, ok := <-fragments:
			if !ok {
				out.Reason = StopEndOfStream
				return out, nil
			}
			if chunk.Err != nil {
				out.Reason = StopUpstreamErr
				return out, fmt.Errorf("upstream stream: %w", chunk.Err)
			}
			out.Fragments++

			forward, stop := term.Feed(chunk.Delta)
			if forward != "" {
				n, werr := io.WriteString(sink, forward)
				out.Bytes += n
				if werr != nil {
					out.Reason = StopSinkErr
					return out, fmt.Errorf("write fragment: %w", werr)
				}
			}

			if stop {
				out.Reason = StopTerminal
				return out, nil
			}
			if chunk.Done {
				out.Reason = StopEndOfStream
				return out, nil
			}
		}
	}
}
