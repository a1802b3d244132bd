package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Handlers wrap one of these with %w so the processor can
// classify the outcome without string matching.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrExternalProcess  = errors.New("external process failed")
	ErrUserCancelled    = errors.New("cancelled by user")
	ErrUnknownKind      = errors.New("unknown task type")
	ErrBlocked          = errors.New("blocking application running")
	ErrCancelled        = errors.New("run cancelled")
)

// TaskError represents a failure of one task. It carries the task key and
// kind so log lines and reports do not need extra context.
type TaskError struct {
	Key     string
	Kind    Kind
	Message string
	Err     error
}

// NewTaskError creates a TaskError.
func NewTaskError(key string, kind Kind, msg string, err error) *TaskError {
	return &TaskError{Key: key, Kind: kind, Message: msg, Err: err}
}

// Error implements the error interface for TaskError.
func (e *TaskError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("task %s", e.Key))
	if e.Kind != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Kind))
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// Classify names the failure class of err for logs and reports.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrResourceNotFound):
		return "ResourceNotFoundError"
	case errors.Is(err, ErrUserCancelled):
		return "UserCancelledError"
	case errors.Is(err, ErrUnknownKind):
		return "UnknownTaskKindError"
	case errors.Is(err, ErrBlocked):
		return "BlockedError"
	case errors.Is(err, ErrCancelled):
		return "CancelledError"
	case errors.Is(err, ErrExternalProcess):
		return "ExternalProcessError"
	default:
		return "Error"
	}
}
