package llm

import "fmt"

// ConfigurationError indicates a missing credential or endpoint. It is
// detected before any network call and is never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ProviderError indicates a non-2xx or malformed response from the backend.
type ProviderError struct {
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API Error: %d: %s", e.Status, e.Msg)
	}
	return e.Msg
}

// TimeoutError indicates a bounded wait was exceeded. It is distinguished
// from ProviderError so callers can offer "try again, it's just slow"
// messaging.
type TimeoutError struct {
	Op      string
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Elapsed)
}
