package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the communication directory.
const LockFileName = "bridge.lock"

// Lock guards the mailbox against other processes sharing the directory.
type Lock struct {
	lock *flock.Flock
}

// NewLock prepares a lock file in dir. The file is created on first TryLock.
func NewLock(dir string) *Lock {
	return &Lock{lock: flock.New(filepath.Join(dir, LockFileName))}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.lock.Path()
}

// TryLock acquires the lock without blocking. ErrBusy means another process holds it.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire bridge lock: %w", err)
	}
	if !locked {
		return ErrBusy
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	return l.lock.Unlock()
}
