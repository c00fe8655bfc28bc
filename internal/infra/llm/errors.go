package llm

import "fmt"

// ProviderError is returned when a backend answers with a non-2xx status.
// Its message always contains "HTTP error" so message-based classification
// treats it as a provider failure unless the body says otherwise.
type ProviderError struct {
	Backend    string
	StatusCode int
	// Message is the upstream error text (JSON "error" field or raw body).
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP error %d", e.Backend, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP error %d: %s", e.Backend, e.StatusCode, e.Message)
}
