package media

import (
	"fmt"
	"time"
)

// ConfigurationError indicates the provider credential or endpoint is
// missing. It is detected before any network call and never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ProviderError indicates a non-2xx response or a provider-reported failure.
type ProviderError struct {
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API Error: %d", e.Status)
	}
	return e.Msg
}

// TimeoutError indicates the poll budget for a task was exhausted. The task
// id is carried for diagnostics.
type TimeoutError struct {
	TaskID  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s (task %s)", e.Elapsed, e.TaskID)
}
