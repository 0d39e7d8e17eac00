package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"reaper-video-fx/internal/bridge"
	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/diagnostics"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/jobs"
	"reaper-video-fx/internal/logging"
	"reaper-video-fx/internal/media"
	"reaper-video-fx/internal/pipeline"
)

// fakeEngine allows injecting custom processing behavior per test.
type fakeEngine struct {
	alive   bool
	tracks  []domain.Track
	process func(ctx context.Context, req pipeline.Request) (string, error)
}

// Ping returns the configured liveness.
func (e *fakeEngine) Ping(context.Context) bool {
	return e.alive
}

// ListTracks returns the configured tracks.
func (e *fakeEngine) ListTracks(context.Context) ([]domain.Track, error) {
	return e.tracks, nil
}

// Process delegates to the injected function.
func (e *fakeEngine) Process(ctx context.Context, req pipeline.Request) (string, error) {
	if e.process == nil {
		return "", nil
	}
	return e.process(ctx, req)
}

// fakeExtension records install calls.
type fakeExtension struct {
	status   domain.ExtensionStatus
	installs int
	err      error
}

// Status returns the configured status.
func (e *fakeExtension) Status() domain.ExtensionStatus {
	return e.status
}

// Install marks the extension installed unless err is set.
func (e *fakeExtension) Install() (string, error) {
	e.installs++
	if e.err != nil {
		return "", e.err
	}
	e.status.Installed = true
	return e.status.Path, nil
}

// emitted captures runtime events pushed to the frontend.
type emitted struct {
	mu     sync.Mutex
	events map[string][]interface{}
}

func (e *emitted) emit(_ context.Context, name string, data ...interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.events == nil {
		e.events = map[string][]interface{}{}
	}
	e.events[name] = append(e.events[name], data...)
}

func (e *emitted) named(name string) []interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]interface{}(nil), e.events[name]...)
}

// newTestApp builds an App with in-memory collaborators.
func newTestApp(t *testing.T, engine processor) (*App, *emitted) {
	t.Helper()
	sink := &emitted{}
	app := &App{
		Store:     config.NewTOMLStore(filepath.Join(t.TempDir(), "config.toml")),
		Jobs:      jobs.NewManager(),
		Engine:    engine,
		Extension: &fakeExtension{},
		logger:    logging.NewNop(),
		emit:      sink.emit,
		events:    jobs.NewEventBus(100),
	}
	app.Startup(context.Background())
	return app, sink
}

// TestStartProcessingEnforcesSingleRunningJob checks single-job guard.
func TestStartProcessingEnforcesSingleRunningJob(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{process: func(ctx context.Context, req pipeline.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}})

	if _, err := app.StartProcessing("/tmp/input.mp4", 0, domain.DefaultRenderSettings()); err != nil {
		t.Fatalf("start first job: %v", err)
	}
	if _, err := app.StartProcessing("/tmp/input-2.mp4", 0, domain.DefaultRenderSettings()); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	if err := app.CancelProcessing(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)
	waitForJobExit(t, app)

	cancelled := 0
	for _, event := range app.JobEvents(0) {
		if event.Type == jobs.EventTypeStatus && event.Status == domain.JobStatusCancelled {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Fatalf("cancelled status published %d times, want 1", cancelled)
	}
}

// pipelineEngine runs requests through a real pipeline.
type pipelineEngine struct {
	pipeline *pipeline.Pipeline
}

func (e *pipelineEngine) Ping(context.Context) bool { return false }

func (e *pipelineEngine) ListTracks(context.Context) ([]domain.Track, error) { return nil, nil }

func (e *pipelineEngine) Process(ctx context.Context, req pipeline.Request) (string, error) {
	return e.pipeline.ProcessVideo(ctx, req)
}

// hangingFFmpeg blocks every invocation until its context is cancelled.
type hangingFFmpeg struct {
	started chan struct{}
	once    sync.Once
}

func (h *hangingFFmpeg) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	h.once.Do(func() { close(h.started) })
	<-ctx.Done()
	return media.CommandResult{Started: true, ExitCode: -1}, errors.New("signal: killed")
}

// TestCancelDuringExtractionEndsCancelled checks a killed ffmpeg is not reported as a failure.
func TestCancelDuringExtractionEndsCancelled(t *testing.T) {
	ffmpeg := &hangingFFmpeg{started: make(chan struct{})}
	mailbox := bridge.NewMemoryMailbox(func(context.Context, bridge.Command) (bridge.Response, error) {
		return bridge.Response{Success: true}, nil
	})
	engine := &pipelineEngine{pipeline: pipeline.New(
		bridge.NewClient(mailbox, nil),
		media.NewTool(media.WithRunner(ffmpeg)),
		t.TempDir(),
		nil,
	)}
	app, _ := newTestApp(t, engine)

	video := filepath.Join(t.TempDir(), "clip.mp4")
	if _, err := app.StartProcessing(video, 0, domain.DefaultRenderSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-ffmpeg.started:
	case <-time.After(2 * time.Second):
		t.Fatal("ffmpeg never started")
	}

	if err := app.CancelProcessing(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForJobExit(t, app)

	if got := app.CurrentJob().Status; got != domain.JobStatusCancelled {
		t.Fatalf("status = %q, want cancelled", got)
	}
	cancelled := 0
	for _, event := range app.JobEvents(0) {
		if event.Type == jobs.EventTypeError {
			t.Fatalf("unexpected error event: %+v", event)
		}
		if event.Type != jobs.EventTypeStatus {
			continue
		}
		switch event.Status {
		case domain.JobStatusFailed:
			t.Fatalf("unexpected failed status: %+v", event)
		case domain.JobStatusCancelled:
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Fatalf("cancelled status published %d times, want 1", cancelled)
	}
	if sent := mailbox.Sent(); len(sent) != 0 {
		t.Fatalf("commands sent after cancellation: %+v", sent)
	}
}

// TestStartProcessingRejectsEmptyVideo checks input validation before a job starts.
func TestStartProcessingRejectsEmptyVideo(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	if _, err := app.StartProcessing("  ", 0, domain.DefaultRenderSettings()); err == nil {
		t.Fatal("expected error for empty video path")
	}
	if app.Jobs.IsRunning() {
		t.Fatal("job should not be running")
	}
}

// TestStartProcessingEmitsProgressAndResult checks event flow on success.
func TestStartProcessingEmitsProgressAndResult(t *testing.T) {
	output := filepath.Join(t.TempDir(), "clip_processed.mp4")
	app, sink := newTestApp(t, &fakeEngine{process: func(ctx context.Context, req pipeline.Request) (string, error) {
		if req.TrackIndex != 2 {
			t.Errorf("track index = %d, want 2", req.TrackIndex)
		}
		for _, stage := range []pipeline.Stage{
			pipeline.StageExtracting,
			pipeline.StageClearing,
			pipeline.StageLoading,
			pipeline.StageRendering,
			pipeline.StageMerging,
		} {
			req.OnStage(stage)
		}
		req.Sink.Progress(domain.ProgressEvent{Step: pipeline.StepExtracting, Percent: 10})
		req.Sink.Progress(domain.ProgressEvent{Step: pipeline.StepDone, Percent: 100})
		return output, nil
	}})

	if _, err := app.StartProcessing("/tmp/clip.mp4", 2, domain.DefaultRenderSettings()); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusDone)
	waitForEventType(t, app, jobs.EventTypeResult)

	if got := app.CurrentJob().OutputPath; got != output {
		t.Fatalf("output path = %q, want %q", got, output)
	}

	progress := sink.named(ProgressEventName)
	want := []interface{}{
		domain.ProgressEvent{Step: pipeline.StepExtracting, Percent: 10},
		domain.ProgressEvent{Step: pipeline.StepDone, Percent: 100},
	}
	if !reflect.DeepEqual(progress, want) {
		t.Fatalf("progress events = %#v, want %#v", progress, want)
	}
	if len(sink.named(JobEventName)) == 0 {
		t.Fatal("expected job events to be pushed")
	}

	events := app.JobEvents(0)
	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeProgress)
	for _, event := range events {
		if event.Type == jobs.EventTypeResult && event.OutputPath != output {
			t.Fatalf("result output = %q, want %q", event.OutputPath, output)
		}
	}
}

// TestStartProcessingPublishesFailureEvents checks error path emissions.
func TestStartProcessingPublishesFailureEvents(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{process: func(ctx context.Context, req pipeline.Request) (string, error) {
		req.OnStage(pipeline.StageClearing)
		req.OnStage(pipeline.StageLoading)
		return "", &pipeline.PipelineError{Stage: pipeline.StageLoading, Message: "disk full"}
	}})

	if _, err := app.StartProcessing("/tmp/clip.mp4", 0, domain.DefaultRenderSettings()); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusFailed)
	waitForEventType(t, app, jobs.EventTypeError)

	for _, event := range app.JobEvents(0) {
		if event.Type != jobs.EventTypeError {
			continue
		}
		if event.Stage != string(pipeline.StageLoading) {
			t.Fatalf("error stage = %q, want loading", event.Stage)
		}
		if event.Message != "loading: disk full" {
			t.Fatalf("error message = %q", event.Message)
		}
	}
}

// TestCancelProcessingWithoutJob checks cancel on an idle app.
func TestCancelProcessingWithoutJob(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	if err := app.CancelProcessing(); !errors.Is(err, jobs.ErrNoRunningJob) {
		t.Fatalf("cancel error = %v, want %v", err, jobs.ErrNoRunningJob)
	}
}

// TestPingAndListTracksDelegate checks bridge queries go through the engine.
func TestPingAndListTracksDelegate(t *testing.T) {
	tracks := []domain.Track{{Index: 0, Name: "Dialog"}, {Index: 1, Name: "Music"}}
	app, _ := newTestApp(t, &fakeEngine{alive: true, tracks: tracks})

	if !app.Ping() {
		t.Fatal("ping = false, want true")
	}
	got, err := app.ListTracks()
	if err != nil {
		t.Fatalf("list tracks: %v", err)
	}
	if !reflect.DeepEqual(got, tracks) {
		t.Fatalf("tracks = %#v, want %#v", got, tracks)
	}
}

// TestSaveSettingsPersistsRenderDefaults checks normalization and persistence.
func TestSaveSettingsPersistsRenderDefaults(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})

	saved, err := app.SaveSettings(domain.RenderSettings{VideoCodec: "libx264", VideoBitrate: "8M"})
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if saved.AudioCodec != "aac" || saved.SampleRate != 48000 {
		t.Fatalf("saved settings not normalized: %#v", saved)
	}

	loaded, err := app.GetSettings()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if loaded.VideoCodec != "libx264" || loaded.VideoBitrate != "8M" {
		t.Fatalf("loaded settings = %#v", loaded)
	}
}

// TestInstallOrFixDiagnosticCreatesCommDir checks directory remediation.
func TestInstallOrFixDiagnosticCreatesCommDir(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	commDir := filepath.Join(t.TempDir(), "comm")
	cfg := config.Default()
	cfg.Paths.CommDir = commDir
	cfg.Paths.WorkDir = commDir
	app.Config = &cfg
	app.checker = diagnostics.NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		func(string, os.FileMode) error { return nil },
		func(string) error { return nil },
	)

	report, err := app.InstallOrFixDiagnostic("comm_dir")
	if err != nil {
		t.Fatalf("fix comm_dir: %v", err)
	}
	if info, statErr := os.Stat(commDir); statErr != nil || !info.IsDir() {
		t.Fatalf("comm dir not created: %v", statErr)
	}
	if len(report.Items) == 0 {
		t.Fatal("expected refreshed diagnostics")
	}
}

// TestInstallOrFixDiagnosticInstallsExtension checks extension remediation.
func TestInstallOrFixDiagnosticInstallsExtension(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	ext := &fakeExtension{status: domain.ExtensionStatus{Path: "/plugins"}}
	app.Extension = ext

	if _, err := app.InstallOrFixDiagnostic("extension_installed"); err != nil {
		t.Fatalf("fix extension: %v", err)
	}
	if ext.installs != 1 || !app.CheckExtensionStatus().Installed {
		t.Fatalf("extension not installed: installs=%d", ext.installs)
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownID checks unsupported items.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	if _, err := app.InstallOrFixDiagnostic("model_path"); err == nil {
		t.Fatal("expected error for unsupported item")
	}
	if _, err := app.InstallOrFixDiagnostic(""); err == nil {
		t.Fatal("expected error for empty item")
	}
}

// TestOpenOutputFolderRequiresPath checks the empty-path guard.
func TestOpenOutputFolderRequiresPath(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	if err := app.OpenOutputFolder(""); err == nil {
		t.Fatal("expected error without output path")
	}
}

// TestMapStageToStatus checks every pipeline stage has a job status.
func TestMapStageToStatus(t *testing.T) {
	cases := map[pipeline.Stage]domain.JobStatus{
		pipeline.StageExtracting: domain.JobStatusExtracting,
		pipeline.StageClearing:   domain.JobStatusClearing,
		pipeline.StageLoading:    domain.JobStatusLoading,
		pipeline.StageRendering:  domain.JobStatusRendering,
		pipeline.StageMerging:    domain.JobStatusMerging,
	}
	for stage, want := range cases {
		got, ok := mapStageToStatus(stage)
		if !ok || got != want {
			t.Fatalf("mapStageToStatus(%q) = %q, %v", stage, got, ok)
		}
	}
	if _, ok := mapStageToStatus("unknown"); ok {
		t.Fatal("unknown stage should not map")
	}
}

// waitForStatus polls job status until timeout.
func waitForStatus(t *testing.T, app *App, want domain.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentJob().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %q, got %q", want, app.CurrentJob().Status)
}

// waitForJobExit polls until the worker goroutine has released the active job.
func waitForJobExit(t *testing.T, app *App) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		app.mu.Lock()
		active := app.activeJobID
		app.mu.Unlock()
		if active == "" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the job goroutine to exit")
}

// waitForEventType polls the event history until an event of type appears.
func waitForEventType(t *testing.T, app *App, eventType jobs.EventType) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, event := range app.JobEvents(0) {
			if event.Type == eventType {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for event type %q", eventType)
}

// assertEventTypeExists fails if expected event type is not present.
func assertEventTypeExists(t *testing.T, events []jobs.Event, eventType jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == eventType {
			return
		}
	}
	t.Fatalf("event type %q not found", eventType)
}
