package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/diagnostics"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/engine"
	"reaper-video-fx/internal/extension"
	"reaper-video-fx/internal/jobs"
	"reaper-video-fx/internal/logging"
	"reaper-video-fx/internal/pipeline"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ProgressEventName is the runtime event carrying domain.ProgressEvent payloads.
const ProgressEventName = "progress"

// JobEventName is the runtime event carrying jobs.Event payloads.
const JobEventName = "job:event"

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.m4v",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, jobs, the processing engine, and UI runtime callbacks.
type App struct {
	Config      *config.Config
	Store       config.Store
	Jobs        *jobs.Manager
	Engine      processor
	Extension   extensionManager
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *slog.Logger
	emit        func(ctx context.Context, name string, data ...interface{})
	installer   installer

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// processor isolates the engine behind an interface.
type processor interface {
	Ping(ctx context.Context) bool
	ListTracks(ctx context.Context) ([]domain.Track, error)
	Process(ctx context.Context, req pipeline.Request) (string, error)
}

// extensionManager isolates bridge installation behind an interface.
type extensionManager interface {
	Status() domain.ExtensionStatus
	Install() (string, error)
}

// New builds the application with persisted configuration and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	configPath, err := config.DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	store := config.NewTOMLStore(configPath)
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", configPath, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	ext := extension.NewManager(cfg.Extension.PluginsDir, cfg.Extension.BundledPath, logger)
	app := &App{
		Config:    cfg,
		Store:     store,
		Jobs:      jobs.NewManager(),
		Engine:    engine.NewFromConfig(cfg, logger),
		Extension: ext,
		assets:    assets,
		checker:   diagnostics.NewChecker(),
		logger:    logging.NewComponentLogger(logger, "desktop"),
		emit:      wailsruntime.EventsEmit,
		events:    jobs.NewEventBus(1000),
	}
	app.Diagnostics = app.runDiagnostics(cfg)
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "REAPER Video FX",
		Width:       960,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			cancel := a.cancel
			a.runtimeCtx = nil
			a.mu.Unlock()
			if cancel != nil {
				cancel()
			}
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Ping reports whether the REAPER bridge answered.
func (a *App) Ping() bool {
	return a.Engine.Ping(a.baseContext())
}

// ListTracks returns the tracks of the open REAPER project.
func (a *App) ListTracks() ([]domain.Track, error) {
	return a.Engine.ListTracks(a.baseContext())
}

// CheckExtensionStatus reports whether the bridge extension is installed.
func (a *App) CheckExtensionStatus() domain.ExtensionStatus {
	return a.Extension.Status()
}

// InstallExtension copies the bundled bridge into REAPER's UserPlugins directory.
func (a *App) InstallExtension() (string, error) {
	dest, err := a.Extension.Install()
	if err != nil {
		return "", err
	}
	a.refreshDiagnostics()
	return dest, nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the persisted render defaults.
func (a *App) GetSettings() (domain.RenderSettings, error) {
	cfg, err := a.Store.Load()
	if err != nil {
		return domain.RenderSettings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Config = cfg
	a.mu.Unlock()

	return cfg.Render, nil
}

// SaveSettings normalizes and persists render defaults.
func (a *App) SaveSettings(settings domain.RenderSettings) (domain.RenderSettings, error) {
	cfg, err := a.Store.Load()
	if err != nil {
		return domain.RenderSettings{}, fmt.Errorf("load settings: %w", err)
	}
	cfg.Render = config.NormalizeRenderSettings(settings)
	if err := a.Store.Save(cfg); err != nil {
		return domain.RenderSettings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Config = cfg
	a.mu.Unlock()

	return cfg.Render, nil
}

// PickVideoFile opens a native file dialog for video selection.
func (a *App) PickVideoFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video file",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the folder containing path (or the last output) in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().OutputPath
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// RefreshDiagnostics reloads configuration and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	cfg, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	report := a.runDiagnostics(cfg)
	a.mu.Lock()
	a.Config = cfg
	a.Diagnostics = report
	a.mu.Unlock()
	return report, nil
}

// StartProcessing creates a job and runs the pipeline asynchronously.
func (a *App) StartProcessing(videoPath string, trackIndex int, settings domain.RenderSettings) (domain.Job, error) {
	videoPath = strings.TrimSpace(videoPath)
	if videoPath == "" {
		return domain.Job{}, fmt.Errorf("video path is required")
	}

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID, videoPath, trackIndex); err != nil {
		return domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(a.baseContext())
	a.mu.Lock()
	a.activeJobID = jobID
	a.cancel = cancel
	a.mu.Unlock()

	a.publishStatus(jobID, domain.JobStatusExtracting, "Job started")

	go a.runProcessingJob(ctx, jobID, videoPath, trackIndex, settings)
	return a.Jobs.Current(), nil
}

// CancelProcessing cancels the currently running job, if any.
func (a *App) CancelProcessing() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	// Mark the job before stopping it so the worker sees the cancelled status.
	err := a.Jobs.Cancel()
	if err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		return err
	}
	if err == nil && activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	cancel()
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runProcessingJob executes the pipeline and maps outcomes to job events.
func (a *App) runProcessingJob(ctx context.Context, jobID, videoPath string, trackIndex int, settings domain.RenderSettings) {
	defer a.clearActiveJob(jobID)

	req := pipeline.Request{
		VideoPath:  videoPath,
		TrackIndex: trackIndex,
		Settings:   settings,
		Sink: pipeline.SinkFunc(func(event domain.ProgressEvent) {
			a.emitRuntime(ProgressEventName, event)
			a.publishEvent(jobs.Event{
				JobID:   jobID,
				Type:    jobs.EventTypeProgress,
				Step:    event.Step,
				Percent: event.Percent,
			})
		}),
		OnStage: func(stage pipeline.Stage) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Jobs.Transition(status); err == nil {
				a.publishStatus(jobID, status, "Running "+string(stage)+" stage")
			}
		},
	}

	outputPath, err := a.Engine.Process(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// CancelProcessing has already moved the job and announced it.
			if a.Jobs.Current().Status != domain.JobStatusCancelled {
				_ = a.Jobs.Transition(domain.JobStatusCancelled)
				a.publishStatus(jobID, domain.JobStatusCancelled, "Job cancelled")
			}
			return
		}

		a.logger.Error("job failed", logging.String("job_id", jobID), logging.Error(err))
		_ = a.Jobs.Transition(domain.JobStatusFailed)
		a.publishStatus(jobID, domain.JobStatusFailed, "Job failed")

		event := jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: err.Error(),
		}
		var pipelineErr *pipeline.PipelineError
		if errors.As(err, &pipelineErr) {
			event.Stage = string(pipelineErr.Stage)
		}
		a.publishEvent(event)
		return
	}

	if err := a.Jobs.Complete(outputPath); err == nil {
		a.publishStatus(jobID, domain.JobStatusDone, "Job completed")
	}
	a.publishEvent(jobs.Event{
		JobID:      jobID,
		Type:       jobs.EventTypeResult,
		Status:     domain.JobStatusDone,
		Message:    "Video exported",
		OutputPath: outputPath,
	})
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)
	a.emitRuntime(JobEventName, published)
}

// emitRuntime pushes one event to the frontend when the runtime is up.
func (a *App) emitRuntime(name string, payload interface{}) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	emit := a.emit
	a.mu.Unlock()
	if ctx != nil && emit != nil {
		emit(ctx, name, payload)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// runDiagnostics checks tools, directories and the extension for cfg.
func (a *App) runDiagnostics(cfg *config.Config) domain.DiagnosticReport {
	if a.checker == nil {
		return domain.DiagnosticReport{}
	}
	var status domain.ExtensionStatus
	if a.Extension != nil {
		status = a.Extension.Status()
	}
	return a.checker.Run(diagnostics.Input{
		FFmpeg:    cfg.FFmpegBinary(),
		CommDir:   cfg.Paths.CommDir,
		WorkDir:   cfg.Paths.WorkDir,
		Extension: status,
	})
}

// refreshDiagnostics reruns checks against the cached configuration.
func (a *App) refreshDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()
	if cfg == nil {
		return domain.DiagnosticReport{}
	}

	report := a.runDiagnostics(cfg)
	a.mu.Lock()
	a.Diagnostics = report
	a.mu.Unlock()
	return report
}

// mapStageToStatus maps pipeline stages to job statuses.
func mapStageToStatus(stage pipeline.Stage) (domain.JobStatus, bool) {
	switch stage {
	case pipeline.StageExtracting:
		return domain.JobStatusExtracting, true
	case pipeline.StageClearing:
		return domain.JobStatusClearing, true
	case pipeline.StageLoading:
		return domain.JobStatusLoading, true
	case pipeline.StageRendering:
		return domain.JobStatusRendering, true
	case pipeline.StageMerging:
		return domain.JobStatusMerging, true
	default:
		return "", false
	}
}

// baseContext returns the runtime context when available.
func (a *App) baseContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx != nil {
		return a.runtimeCtx
	}
	return context.Background()
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
