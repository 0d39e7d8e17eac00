package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reaper-video-fx/internal/domain"
)

func itemByID(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %q not in report %+v", id, report.Items)
	return domain.DiagnosticItem{}
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		checkDirWritable,
	)

	report := checker.Run(Input{
		FFmpeg:  "ffmpeg",
		CommDir: filepath.Join(root, "comm"),
		WorkDir: filepath.Join(root, "work"),
		Extension: domain.ExtensionStatus{
			Installed:        true,
			Path:             "/plugins",
			BundledAvailable: true,
			BundledPath:      "/app/reaper_video_fx_bridge.so",
		},
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if len(report.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(report.Items))
	}
	if _, err := os.Stat(filepath.Join(root, "comm")); err != nil {
		t.Fatalf("comm dir should be created: %v", err)
	}
}

// TestCheckerRunMissingToolAndUnwritableDir validates failure reporting.
func TestCheckerRunMissingToolAndUnwritableDir(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		func(string, os.FileMode) error { return nil },
		func(string) error { return errors.New("permission denied") },
	)

	report := checker.Run(Input{CommDir: "/comm", WorkDir: "/comm"})
	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	if item := itemByID(t, report, "tool_ffmpeg"); item.Status != domain.DiagnosticStatusFail || item.Hint == "" {
		t.Fatalf("ffmpeg item = %+v", item)
	}
	if item := itemByID(t, report, "comm_dir"); item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("comm item = %+v", item)
	}
	for _, item := range report.Items {
		if item.ID == "work_dir" {
			t.Fatal("work dir equal to comm dir should not be checked twice")
		}
	}
}

// TestCheckerDirectoryCreateFailure checks mkdir errors are reported.
func TestCheckerDirectoryCreateFailure(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return name, nil },
		func(string, os.FileMode) error { return errors.New("read-only file system") },
		func(string) error { return nil },
	)

	item := itemByID(t, checker.Run(Input{CommDir: "/ro/comm"}), "comm_dir")
	if item.Status != domain.DiagnosticStatusFail || item.Message != "Cannot create directory: /ro/comm" {
		t.Fatalf("item = %+v", item)
	}
}

// TestCheckerExtensionWarnings checks a missing extension warns without failing.
func TestCheckerExtensionWarnings(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return name, nil },
		os.MkdirAll,
		func(string) error { return nil },
	)

	report := checker.Run(Input{
		CommDir:   t.TempDir(),
		Extension: domain.ExtensionStatus{Path: "/plugins"},
	})
	if report.HasFailures {
		t.Fatalf("warnings must not count as failures: %+v", report.Items)
	}
	if item := itemByID(t, report, "extension_installed"); item.Status != domain.DiagnosticStatusWarn {
		t.Fatalf("extension item = %+v", item)
	}
	if item := itemByID(t, report, "extension_bundled"); item.Status != domain.DiagnosticStatusWarn {
		t.Fatalf("bundle item = %+v", item)
	}
}
