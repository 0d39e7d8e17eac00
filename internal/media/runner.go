package media

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks on output after the process is killed.
const waitDelay = 2 * time.Second

// CommandResult is the outcome of one process execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Started is false when the process could not be launched at all.
	Started bool
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Children of a killed ffmpeg can keep the pipes open; stop waiting for them.
	cmd.WaitDelay = waitDelay
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return CommandResult{ExitCode: -1}, err
	}

	err := cmd.Wait()
	result := CommandResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Started: true,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}
