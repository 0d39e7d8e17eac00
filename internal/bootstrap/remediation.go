package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"reaper-video-fx/internal/domain"
)

const installCommandTimeout = 30 * time.Minute

// packageInstall is one package manager and the commands that install ffmpeg with it.
type packageInstall struct {
	manager  string
	commands [][]string
}

// installer runs package-manager commands. Fields are swapped in tests.
type installer struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func newInstaller() installer {
	return installer{
		goos:     goruntime.GOOS,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	var fixErr error
	switch id {
	case "tool_ffmpeg":
		inst := a.installer
		if inst.run == nil {
			inst = newInstaller()
		}
		fixErr = inst.installFFmpeg(a.baseContext())
	case "comm_dir", "work_dir":
		a.mu.Lock()
		cfg := a.Config
		a.mu.Unlock()
		if cfg == nil {
			return domain.DiagnosticReport{}, fmt.Errorf("configuration is not loaded")
		}
		fixErr = cfg.EnsureDirectories()
	case "extension_installed":
		_, fixErr = a.Extension.Install()
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshDiagnostics()
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// installFFmpeg tries each available package manager until one succeeds.
func (i installer) installFFmpeg(ctx context.Context) error {
	if err := i.firstSuccessful(ctx, ffmpegInstalls(i.goos)); err != nil {
		return fmt.Errorf("install ffmpeg: %w", err)
	}
	if _, err := i.lookPath("ffmpeg"); err != nil {
		return fmt.Errorf("verify ffmpeg on PATH: %w", err)
	}
	return nil
}

// ffmpegInstalls lists package-manager recipes for goos in preference order.
func ffmpegInstalls(goos string) []packageInstall {
	single := func(manager string, args ...string) packageInstall {
		return packageInstall{manager: manager, commands: [][]string{append([]string{manager}, args...)}}
	}

	switch goos {
	case "windows":
		return []packageInstall{
			single("winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"),
			single("choco", "install", "ffmpeg", "-y"),
			single("scoop", "install", "ffmpeg"),
		}
	case "darwin":
		return []packageInstall{single("brew", "install", "ffmpeg")}
	default:
		return []packageInstall{
			{
				manager: "apt-get",
				commands: [][]string{
					{"apt-get", "update"},
					{"apt-get", "install", "-y", "ffmpeg"},
				},
			},
			single("dnf", "install", "-y", "ffmpeg"),
			single("pacman", "-Sy", "--noconfirm", "ffmpeg"),
			single("zypper", "install", "-y", "ffmpeg"),
			single("brew", "install", "ffmpeg"),
		}
	}
}

// firstSuccessful runs the first recipe whose manager is on PATH and succeeds.
func (i installer) firstSuccessful(ctx context.Context, installs []packageInstall) error {
	if len(installs) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", i.goos)
	}

	failures := make([]string, 0, len(installs))
	for _, install := range installs {
		if !i.available(install.manager) {
			continue
		}
		err := i.runAll(ctx, install.commands)
		if err == nil {
			return nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", install.manager, err))
	}

	if len(failures) == 0 {
		return fmt.Errorf("no supported package manager found for %s", i.goos)
	}
	return errors.New(strings.Join(failures, " | "))
}

func (i installer) runAll(ctx context.Context, commands [][]string) error {
	for _, command := range commands {
		if err := i.runElevated(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

// runElevated retries system package managers through pkexec or non-interactive sudo on Linux.
func (i installer) runElevated(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	attempts := [][]string{command}
	if i.goos == "linux" && requiresElevation(command[0]) {
		if i.available("pkexec") {
			attempts = append(attempts, append([]string{"pkexec"}, command...))
		}
		if i.available("sudo") {
			attempts = append(attempts, append([]string{"sudo", "-n"}, command...))
		}
	}

	failures := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		err := i.run(ctx, attempt[0], attempt[1:]...)
		if err == nil {
			return nil
		}
		failures = append(failures, err.Error())
	}
	return errors.New(strings.Join(failures, " | "))
}

func (i installer) available(name string) bool {
	_, err := i.lookPath(name)
	return err == nil
}

// runCommand executes one install command with a timeout and trimmed output in errors.
func runCommand(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, installCommandTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}
