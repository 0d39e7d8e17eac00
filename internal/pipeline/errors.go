package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest reports a request rejected before any stage ran.
var ErrInvalidRequest = errors.New("invalid processing request")

// PipelineError is a stage-aware error wrapping the transport or media cause.
type PipelineError struct {
	Stage   Stage
	Message string
	Err     error
}

// Error formats pipeline failures for logs and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &PipelineError{Stage: stage, Message: err.Error(), Err: err}
}
