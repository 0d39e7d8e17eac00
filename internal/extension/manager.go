package extension

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/logging"
)

// ErrBundleNotFound reports that no packaged bridge library could be located.
var ErrBundleNotFound = errors.New("bridge extension library not found")

// Manager reports on and installs the REAPER bridge extension.
type Manager struct {
	goos        string
	pluginsDir  string
	bundledPath string
	executable  func() (string, error)
	getwd       func() (string, error)
	stat        func(string) (os.FileInfo, error)
	logger      *slog.Logger
}

// NewManager builds a manager for the running platform. Empty arguments fall
// back to the platform plugin directory and the bundled search path.
func NewManager(pluginsDir, bundledPath string, logger *slog.Logger) *Manager {
	return NewManagerForTests(runtime.GOOS, pluginsDir, bundledPath, os.Executable, os.Getwd, os.Stat, logger)
}

// NewManagerForTests allows platform and OS dependency injection.
func NewManagerForTests(
	goos, pluginsDir, bundledPath string,
	executable func() (string, error),
	getwd func() (string, error),
	stat func(string) (os.FileInfo, error),
	logger *slog.Logger,
) *Manager {
	return &Manager{
		goos:        goos,
		pluginsDir:  pluginsDir,
		bundledPath: bundledPath,
		executable:  executable,
		getwd:       getwd,
		stat:        stat,
		logger:      logging.NewComponentLogger(logger, "extension"),
	}
}

// PluginsDir returns the configured or platform-default UserPlugins directory.
func (m *Manager) PluginsDir() (string, error) {
	if strings.TrimSpace(m.pluginsDir) != "" {
		return m.pluginsDir, nil
	}
	home, _ := os.UserHomeDir()
	configDir, _ := os.UserConfigDir()
	return UserPluginsDir(m.goos, home, configDir)
}

// InstalledPath returns where the library lives once installed.
func (m *Manager) InstalledPath() (string, error) {
	dir, err := m.PluginsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LibraryName(m.goos)), nil
}

// FindBundled returns the first existing packaged library.
func (m *Manager) FindBundled() (string, error) {
	if strings.TrimSpace(m.bundledPath) != "" {
		if m.isFile(m.bundledPath) {
			return m.bundledPath, nil
		}
		return "", fmt.Errorf("%w: %s", ErrBundleNotFound, m.bundledPath)
	}

	var exeDir, cwd string
	if exe, err := m.executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	if wd, err := m.getwd(); err == nil {
		cwd = wd
	}
	for _, candidate := range bundledCandidates(m.goos, exeDir, cwd) {
		if m.isFile(candidate) {
			return candidate, nil
		}
	}
	return "", ErrBundleNotFound
}

// Status reports whether the extension is installed and a bundle is available.
func (m *Manager) Status() domain.ExtensionStatus {
	var status domain.ExtensionStatus
	if dir, err := m.PluginsDir(); err == nil {
		status.Path = dir
		status.Installed = m.isFile(filepath.Join(dir, LibraryName(m.goos)))
	}
	if bundled, err := m.FindBundled(); err == nil {
		status.BundledAvailable = true
		status.BundledPath = bundled
	}
	return status
}

// Install copies the bundled library into the UserPlugins directory and
// returns the destination path.
func (m *Manager) Install() (string, error) {
	source, err := m.FindBundled()
	if err != nil {
		return "", err
	}
	dest, err := m.InstalledPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create plugins directory: %w", err)
	}
	if err := copyFile(source, dest); err != nil {
		return "", err
	}
	m.logger.Info("extension installed", logging.String("source", source), logging.String("dest", dest))
	return dest, nil
}

func (m *Manager) isFile(path string) bool {
	info, err := m.stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy extension: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	return nil
}
