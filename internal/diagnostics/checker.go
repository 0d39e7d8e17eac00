package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"reaper-video-fx/internal/domain"
)

// Input describes what the checker should inspect.
type Input struct {
	FFmpeg    string
	CommDir   string
	WorkDir   string
	Extension domain.ExtensionStatus
}

// Checker validates external tools, shared directories and the bridge extension.
type Checker struct {
	lookPath    func(string) (string, error)
	mkdirAll    func(string, os.FileMode) error
	dirWritable func(string) error
	now         func() time.Time
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:    exec.LookPath,
		mkdirAll:    os.MkdirAll,
		dirWritable: checkDirWritable,
		now:         time.Now,
	}
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	dirWritable func(string) error,
) *Checker {
	return &Checker{
		lookPath:    lookPath,
		mkdirAll:    mkdirAll,
		dirWritable: dirWritable,
		now:         time.Now,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(in Input) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(in.FFmpeg),
		c.checkDir("comm_dir", "Communication directory", in.CommDir,
			"REAPER and this app exchange command.json and response.json here; choose a writable location."),
	}
	if strings.TrimSpace(in.WorkDir) != "" && in.WorkDir != in.CommDir {
		items = append(items, c.checkDir("work_dir", "Work directory", in.WorkDir,
			"Intermediate audio is written here and must be readable by REAPER."))
	}
	items = append(items, checkExtension(in.Extension), checkBundle(in.Extension))

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: c.now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies the media tool resolves to an executable.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	if strings.TrimSpace(name) == "" {
		name = "ffmpeg"
	}
	item := domain.DiagnosticItem{ID: "tool_ffmpeg", Name: "ffmpeg"}

	path, err := c.lookPath(name)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found: %s", name)
		item.Hint = "Install ffmpeg and ensure it is on PATH, or set [tools] ffmpeg / FFMPEG_PATH."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkDir validates directory existence and write access.
func (c *Checker) checkDir(id, name, dir, hint string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: id, Name: name}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("%s is empty.", name)
		item.Hint = hint
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = hint
		return item
	}

	if err := c.dirWritable(dir); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = hint
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkExtension reports whether REAPER will load the bridge.
func checkExtension(status domain.ExtensionStatus) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "extension_installed", Name: "REAPER bridge extension"}
	switch {
	case status.Path == "":
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "REAPER UserPlugins directory could not be determined."
		item.Hint = "Set [extension] plugins_dir in the config file."
	case status.Installed:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Installed in %s", status.Path)
	default:
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Not installed in %s", status.Path)
		item.Hint = "Install the extension, then restart REAPER."
	}
	return item
}

// checkBundle reports whether an installable library ships with the app.
func checkBundle(status domain.ExtensionStatus) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "extension_bundled", Name: "Bundled extension"}
	if status.BundledAvailable {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Available at %s", status.BundledPath)
		return item
	}
	item.Status = domain.DiagnosticStatusWarn
	item.Message = "No bundled extension library found."
	item.Hint = "Build reaper-extension or set [extension] bundled_path."
	return item
}
