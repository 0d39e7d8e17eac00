//go:build !windows

package diagnostics

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// checkDirWritable verifies read, write and search permission on dir.
func checkDirWritable(dir string) error {
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("access %s: %w", dir, err)
	}
	return nil
}
