package llm

import (
	"bufio"
	"io"
	"strings"
)

// sseDoneSentinel is the data payload OpenAI-compatible servers send last.
const sseDoneSentinel = "[DONE]"

// sseReader yields the data payload of each server-sent event in a stream.
// Only the "data" field matters for chat completion streams; "event", "id",
// "retry" and comment lines are skipped.
type sseReader struct {
	scanner *bufio.Scanner
	data    strings.Builder
	hasData bool
}

func newSSEReader(src io.Reader) *sseReader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next returns the next event's data. It returns io.EOF once the source is
// exhausted; a trailing event without a blank line is still returned first.
func (r *sseReader) Next() (string, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if r.hasData {
				return r.flush(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		if r.hasData {
			// multiple data lines of one event are joined with "\n"
			r.data.WriteByte('\n')
		}
		r.data.WriteString(strings.TrimPrefix(value, " "))
		r.hasData = true
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	if r.hasData {
		return r.flush(), nil
	}
	return "", io.EOF
}

func (r *sseReader) flush() string {
	s := r.data.String()
	r.data.Reset()
	r.hasData = false
	return s
}
