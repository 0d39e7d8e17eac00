package media

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolLaunch reports that ffmpeg could not be started.
	ErrToolLaunch = errors.New("media tool could not be launched")
	// ErrToolExecution reports that ffmpeg ran and exited unsuccessfully.
	ErrToolExecution = errors.New("media tool failed")
)

// ToolError describes one failed ffmpeg invocation.
type ToolError struct {
	Op       string
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
	launch   bool
}

func (e *ToolError) Error() string {
	if e.launch {
		return fmt.Sprintf("%s: could not launch %s: %v", e.Op, e.Command, e.Err)
	}
	msg := fmt.Sprintf("%s: %s exited with code %d", e.Op, e.Command, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *ToolError) Unwrap() []error {
	kind := ErrToolExecution
	if e.launch {
		kind = ErrToolLaunch
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}

// Launch reports whether the process never started.
func (e *ToolError) Launch() bool {
	return e.launch
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
