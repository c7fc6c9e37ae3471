package llm

import (
	"context"
	"fmt"
)

// Client is the model backend collaborator: a blocking request/response text
// service taking a system instruction and a user instruction.
type Client interface {
	Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

// BackendError describes a failed model backend call. Transient failures
// (network errors, 429, 5xx) are retried by the caller's policy; everything
// else fails fast.
type BackendError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("model backend error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model backend error: %s", e.Message)
}

// IsTransient reports whether the failure is safe to retry
func (e *BackendError) IsTransient() bool {
	return e.Transient
}
