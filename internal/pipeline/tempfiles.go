package pipeline

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"reaper-video-fx/internal/logging"
)

// tempFiles tracks intermediate files owned by one run.
type tempFiles struct {
	mu     sync.Mutex
	paths  []string
	remove func(string) error
	logger *slog.Logger
}

func newTempFiles(remove func(string) error, logger *slog.Logger) *tempFiles {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &tempFiles{remove: remove, logger: logger}
}

// add registers path for removal and returns it.
func (t *tempFiles) add(path string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
	return path
}

// release deletes every registered file. Missing files are ignored and other
// failures are only logged.
func (t *tempFiles) release() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, path := range paths {
		if err := t.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("remove temp file", logging.String("path", path), logging.Error(err))
		}
	}
}
