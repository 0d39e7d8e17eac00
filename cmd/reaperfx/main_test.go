package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"reaper-video-fx/internal/bridge"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/extension"
)

func TestPingCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	env.engine.alive = true
	out, _, err := runCLI(t, env, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	requireContains(t, out, "[OK] responding")

	env.engine.alive = false
	out, _, err = runCLI(t, env, "ping")
	if !errors.Is(err, errNotResponding) {
		t.Fatalf("ping error = %v, want %v", err, errNotResponding)
	}
	requireContains(t, out, "[ERROR] no response")
}

func TestTracksCommandFormats(t *testing.T) {
	env := setupCLITestEnv(t)
	env.engine.tracks = []domain.Track{{Index: 0, Name: "Dialog"}, {Index: 1, Name: "Music"}}

	out, _, err := runCLI(t, env, "tracks")
	if err != nil {
		t.Fatalf("tracks table: %v", err)
	}
	requireContains(t, out, "Dialog")
	requireContains(t, out, "Music")

	out, _, err = runCLI(t, env, "tracks", "--output", "json")
	if err != nil {
		t.Fatalf("tracks json: %v", err)
	}
	var decoded []domain.Track
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(decoded) != 2 || decoded[1].Name != "Music" {
		t.Fatalf("decoded tracks = %#v", decoded)
	}

	out, _, err = runCLI(t, env, "tracks", "-o", "yaml")
	if err != nil {
		t.Fatalf("tracks yaml: %v", err)
	}
	decoded = nil
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if len(decoded) != 2 || decoded[0].Name != "Dialog" {
		t.Fatalf("decoded tracks = %#v", decoded)
	}

	if _, _, err := runCLI(t, env, "tracks", "-o", "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTracksCommandEmptyProject(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "tracks")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	requireContains(t, out, "No tracks")
}

func TestProcessCommandUsesFlagsOverConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.base, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	env.engine.output = filepath.Join(env.base, "clip_processed.mp4")

	out, _, err := runCLI(t, env, "process", video, "--track", "3", "--video-codec", "libx264", "--video-bitrate", "8M")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if env.engine.videoPath != video || env.engine.trackIndex != 3 {
		t.Fatalf("engine got video=%q track=%d", env.engine.videoPath, env.engine.trackIndex)
	}
	want := domain.DefaultRenderSettings()
	want.VideoCodec = "libx264"
	want.VideoBitrate = "8M"
	if env.engine.settings != want {
		t.Fatalf("settings = %#v, want %#v", env.engine.settings, want)
	}
	requireContains(t, out, "[ 10%] Extracting audio from video...")
	requireContains(t, out, "[100%] Done!")
	requireContains(t, out, env.engine.output)
}

func TestProcessCommandPromptsForTrack(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.base, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	env.engine.tracks = []domain.Track{{Index: 0, Name: "Dialog"}, {Index: 1, Name: "Music"}}
	env.prompter.choice = 1
	env.terminal = true

	if _, _, err := runCLI(t, env, "process", video); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(env.prompter.offered) != 2 {
		t.Fatalf("prompter offered %d tracks, want 2", len(env.prompter.offered))
	}
	if env.engine.trackIndex != 1 {
		t.Fatalf("track index = %d, want 1", env.engine.trackIndex)
	}
}

func TestProcessCommandRequiresTrackWithoutTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.base, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	_, _, err := runCLI(t, env, "process", video)
	if err == nil {
		t.Fatal("expected error without --track")
	}
	requireContains(t, err.Error(), "--track is required")
}

func TestProcessCommandReportsEngineErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.base, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	env.engine.err = bridge.ErrBusy

	_, _, err := runCLI(t, env, "process", video, "-t", "0")
	if !errors.Is(err, bridge.ErrBusy) {
		t.Fatalf("process error = %v, want %v", err, bridge.ErrBusy)
	}
}

func TestProcessCommandRejectsMissingVideo(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "process", filepath.Join(env.base, "missing.mp4"), "-t", "0")
	if err == nil {
		t.Fatal("expected error for missing video")
	}
	if env.engine.videoPath != "" {
		t.Fatal("engine should not run for a missing video")
	}
}

func TestExtensionStatusAndInstall(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "extension", "status", "-o", "json")
	if err != nil {
		t.Fatalf("extension status: %v", err)
	}
	var status domain.ExtensionStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Installed || status.BundledAvailable {
		t.Fatalf("unexpected status before install: %#v", status)
	}

	if _, _, err := runCLI(t, env, "extension", "install"); !errors.Is(err, extension.ErrBundleNotFound) {
		t.Fatalf("install without bundle error = %v", err)
	}

	env.writeBundle(t)
	out, _, err = runCLI(t, env, "extension", "install")
	if err != nil {
		t.Fatalf("extension install: %v", err)
	}
	requireContains(t, out, "Installed bridge extension")

	out, _, err = runCLI(t, env, "extension", "status")
	if err != nil {
		t.Fatalf("extension status: %v", err)
	}
	requireContains(t, out, "Installed")
	requireContains(t, out, "yes")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.commDir)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "== System Check ==")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "Summary: 2 Pass, 2 Warn, 0 Fail")
}

func TestDoctorCommandYAML(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "doctor", "-o", "yaml")
	if err != nil {
		t.Fatalf("doctor yaml: %v", err)
	}
	var report domain.DiagnosticReport
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if report.HasFailures || report.Count(domain.DiagnosticStatusPass) != 2 {
		t.Fatalf("report = %+v", report)
	}
}
