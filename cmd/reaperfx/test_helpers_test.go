package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/diagnostics"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/pipeline"
)

// fakeEngine records calls and replays scripted results.
type fakeEngine struct {
	alive    bool
	tracks   []domain.Track
	tracksFn func() ([]domain.Track, error)
	output   string
	err      error

	videoPath  string
	trackIndex int
	settings   domain.RenderSettings
}

func (e *fakeEngine) Ping(context.Context) bool { return e.alive }

func (e *fakeEngine) ListTracks(context.Context) ([]domain.Track, error) {
	if e.tracksFn != nil {
		return e.tracksFn()
	}
	return e.tracks, nil
}

func (e *fakeEngine) ProcessVideo(_ context.Context, videoPath string, trackIndex int, settings domain.RenderSettings, sink pipeline.ProgressSink) (string, error) {
	e.videoPath = videoPath
	e.trackIndex = trackIndex
	e.settings = settings
	if e.err != nil {
		return "", e.err
	}
	sink.Progress(domain.ProgressEvent{Step: pipeline.StepExtracting, Percent: 10})
	sink.Progress(domain.ProgressEvent{Step: pipeline.StepDone, Percent: 100})
	return e.output, nil
}

// fakePrompter returns a fixed track and records what it was offered.
type fakePrompter struct {
	choice  int
	offered []domain.Track
}

func (p *fakePrompter) SelectTrack(tracks []domain.Track) (int, error) {
	p.offered = tracks
	return p.choice, nil
}

type cliTestEnv struct {
	base       string
	configPath string
	commDir    string
	pluginsDir string
	bundled    string
	engine     *fakeEngine
	prompter   *fakePrompter
	terminal   bool
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		commDir:    filepath.Join(base, "comm"),
		pluginsDir: filepath.Join(base, "UserPlugins"),
		bundled:    filepath.Join(base, "dist", "bridge.lib"),
		engine:     &fakeEngine{},
		prompter:   &fakePrompter{},
	}

	content := fmt.Sprintf(
		"[paths]\ncomm_dir = %q\nlog_dir = %q\n\n[extension]\nplugins_dir = %q\nbundled_path = %q\n",
		env.commDir,
		filepath.Join(base, "logs"),
		env.pluginsDir,
		env.bundled,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (env *cliTestEnv) writeBundle(t *testing.T) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(env.bundled), 0o755); err != nil {
		t.Fatalf("mkdir bundle dir: %v", err)
	}
	if err := os.WriteFile(env.bundled, []byte("bridge"), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()

	var configFlag string
	ctx := newCommandContext(&configFlag)
	ctx.newEngine = func(*config.Config, *slog.Logger) coreEngine { return env.engine }
	ctx.prompter = env.prompter
	ctx.interactive = func() bool { return env.terminal }
	ctx.newChecker = func() *diagnostics.Checker {
		return diagnostics.NewCheckerForTests(
			func(name string) (string, error) { return "/usr/bin/" + name, nil },
			os.MkdirAll,
			func(string) error { return nil },
		)
	}

	cmd := newRootCommandWithContext(ctx, &configFlag)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
