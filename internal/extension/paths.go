package extension

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BaseName is the bridge library name without platform extension.
const BaseName = "reaper_video_fx_bridge"

// LibraryName returns the bridge library file name for goos.
func LibraryName(goos string) string {
	switch goos {
	case "windows":
		return BaseName + ".dll"
	case "darwin":
		return BaseName + ".dylib"
	default:
		return BaseName + ".so"
	}
}

// UserPluginsDir returns REAPER's per-user plugin directory for goos.
func UserPluginsDir(goos, home, configDir string) (string, error) {
	switch goos {
	case "windows":
		if strings.TrimSpace(configDir) == "" {
			return "", fmt.Errorf("REAPER UserPlugins directory not found: no config directory")
		}
		return filepath.Join(configDir, "REAPER", "UserPlugins"), nil
	case "darwin":
		if strings.TrimSpace(home) == "" {
			return "", fmt.Errorf("REAPER UserPlugins directory not found: no home directory")
		}
		return filepath.Join(home, "Library", "Application Support", "REAPER", "UserPlugins"), nil
	case "linux":
		if strings.TrimSpace(home) == "" {
			return "", fmt.Errorf("REAPER UserPlugins directory not found: no home directory")
		}
		return filepath.Join(home, ".config", "REAPER", "UserPlugins"), nil
	default:
		return "", fmt.Errorf("REAPER UserPlugins directory not found: unsupported platform %s", goos)
	}
}

// bundledCandidates lists where a packaged or development build keeps the library.
func bundledCandidates(goos, exeDir, cwd string) []string {
	name := LibraryName(goos)
	var out []string
	if exeDir != "" {
		out = append(out,
			filepath.Join(exeDir, name),
			filepath.Join(exeDir, "..", "..", "..", "reaper-extension", "dist", name),
		)
	}
	if cwd != "" {
		out = append(out, filepath.Join(filepath.Dir(cwd), "reaper-extension", "dist", name))
	}
	for i, p := range out {
		out[i] = filepath.Clean(p)
	}
	return out
}
