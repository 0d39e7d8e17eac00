//go:build windows

package diagnostics

import (
	"fmt"
	"os"
)

// checkDirWritable tests dir by creating and removing a temp file.
func checkDirWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("write test file in %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}
