package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reaper-video-fx/internal/logging"
)

const (
	CommandFileName  = "command.json"
	ResponseFileName = "response.json"

	// PollInterval is the delay between response checks.
	PollInterval = 100 * time.Millisecond
	// ResponseTimeout bounds how long Send waits for a response.
	ResponseTimeout = 60 * time.Second
)

// Mailbox delivers one command and returns the matching response.
type Mailbox interface {
	Send(ctx context.Context, cmd Command) (Response, error)
}

// FileMailbox exchanges commands through command.json and response.json.
type FileMailbox struct {
	dir      string
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewFileMailbox creates a mailbox rooted at dir.
func NewFileMailbox(dir string, logger *slog.Logger) *FileMailbox {
	return NewFileMailboxForTests(dir, PollInterval, ResponseTimeout, time.Now, logger)
}

// NewFileMailboxForTests allows timing and clock injection.
func NewFileMailboxForTests(dir string, interval, timeout time.Duration, now func() time.Time, logger *slog.Logger) *FileMailbox {
	if now == nil {
		now = time.Now
	}
	return &FileMailbox{
		dir:      dir,
		interval: interval,
		timeout:  timeout,
		now:      now,
		logger:   logging.NewComponentLogger(logger, "bridge"),
	}
}

// Dir returns the communication directory.
func (m *FileMailbox) Dir() string {
	return m.dir
}

// CommandPath returns the location of command.json.
func (m *FileMailbox) CommandPath() string {
	return filepath.Join(m.dir, CommandFileName)
}

// ResponsePath returns the location of response.json.
func (m *FileMailbox) ResponsePath() string {
	return filepath.Join(m.dir, ResponseFileName)
}

// Send writes cmd and waits for the extension's response.
func (m *FileMailbox) Send(ctx context.Context, cmd Command) (Response, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Response{}, fmt.Errorf("%w: %s: %w", ErrDirectory, m.dir, err)
	}

	m.removeRemnants()

	payload, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("%w: encode %s: %w", ErrWrite, cmd.Kind, err)
	}
	if err := writeFileAtomic(m.CommandPath(), payload); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	m.logger.Debug("command sent", logging.String("command", string(cmd.Kind)))

	started := m.now()
	deadline := started.Add(m.timeout)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-ctx.Done():
			m.removeRemnants()
			return Response{}, fmt.Errorf("%s: %w", cmd.Kind, ctx.Err())
		case <-ticker.C:
		}

		resp, ok, err := m.readResponse()
		if err != nil && !warned {
			warned = true
			m.logger.Warn("response file unreadable, retrying",
				logging.String("command", string(cmd.Kind)),
				logging.Error(err),
			)
		}
		if ok {
			if err := os.Remove(m.ResponsePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				m.logger.Warn("remove response file", logging.Error(err))
			}
			m.logger.Debug("response received",
				logging.String("command", string(cmd.Kind)),
				logging.Bool("success", resp.Success),
				logging.Duration("elapsed", m.now().Sub(started)),
			)
			return resp, nil
		}

		if !m.now().Before(deadline) {
			m.removeRemnants()
			m.logger.Warn("response timed out",
				logging.String("command", string(cmd.Kind)),
				logging.Duration("timeout", m.timeout),
			)
			return Response{}, ErrTimeout
		}
	}
}

// readResponse reports ok=false while the file is missing or not yet valid JSON.
func (m *FileMailbox) readResponse() (Response, bool, error) {
	data, err := os.ReadFile(m.ResponsePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Response{}, false, nil
		}
		return Response{}, false, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, false, nil
	}
	return resp, true, nil
}

func (m *FileMailbox) removeRemnants() {
	for _, path := range []string{m.CommandPath(), m.CommandPath() + ".tmp", m.ResponsePath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("remove stale mailbox file", logging.String("path", path), logging.Error(err))
		}
	}
}

// writeFileAtomic writes to a sibling temp file then renames it over path so
// the extension never observes a partial command.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
