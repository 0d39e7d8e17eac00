package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reaper-video-fx/internal/bridge"
	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/logging"
)

// Stage names one step of a processing run.
type Stage string

const (
	StageExtracting Stage = "extracting"
	StageClearing   Stage = "clearing"
	StageLoading    Stage = "loading"
	StageRendering  Stage = "rendering"
	StageMerging    Stage = "merging"
)

// Progress labels and percentages reported after each stage boundary.
const (
	StepExtracting = "Extracting audio from video..."
	StepExtracted  = "Audio extracted"
	StepPreparing  = "Preparing track..."
	StepLoading    = "Loading audio into REAPER..."
	StepLoaded     = "Audio loaded"
	StepRendering  = "Rendering track..."
	StepRendered   = "Render complete"
	StepMerging    = "Building video..."
	StepDone       = "Done!"
)

// OutputSuffix is appended to the video stem to name the result.
const OutputSuffix = "_processed"

// Bridge is the subset of the REAPER client used by the pipeline.
type Bridge interface {
	ClearTrack(ctx context.Context, trackIndex int) (bridge.Response, error)
	LoadAudio(ctx context.Context, trackIndex int, audioPath string) (bridge.Response, error)
	RenderTrack(ctx context.Context, trackIndex int, outputPath string) (bridge.Response, error)
}

// MediaTool extracts and remuxes audio.
type MediaTool interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string, sampleRate int) error
	MergeAudioVideo(ctx context.Context, videoPath, audioPath, outputPath string, settings domain.RenderSettings) error
}

// Request contains the input video and execution callbacks for one run.
type Request struct {
	VideoPath  string
	TrackIndex int
	Settings   domain.RenderSettings
	Sink       ProgressSink
	OnStage    func(stage Stage)
}

// Pipeline runs extract, clear, load, render and merge in order.
type Pipeline struct {
	bridge  Bridge
	media   MediaTool
	workDir string
	now     func() time.Time
	token   func() string
	remove  func(string) error
	logger  *slog.Logger
}

// New constructs the production pipeline. Intermediate files go to workDir,
// which REAPER must be able to read.
func New(b Bridge, media MediaTool, workDir string, logger *slog.Logger) *Pipeline {
	return NewPipelineForTests(b, media, workDir, time.Now, shortToken, os.Remove, logger)
}

// NewPipelineForTests allows clock, token and file removal injection.
func NewPipelineForTests(
	b Bridge,
	media MediaTool,
	workDir string,
	now func() time.Time,
	token func() string,
	remove func(string) error,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		bridge:  b,
		media:   media,
		workDir: workDir,
		now:     now,
		token:   token,
		remove:  remove,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// OutputPath returns <dir>/<stem>_processed.mp4 for videoPath.
func OutputPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "video"
	}
	return filepath.Join(dir, stem+OutputSuffix+".mp4")
}

// ProcessVideo runs the full pipeline and returns the output path. Temp files
// are removed on every exit path; DAW-side effects of issued commands are not
// rolled back.
func (p *Pipeline) ProcessVideo(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	outputPath := OutputPath(req.VideoPath)
	temps := newTempFiles(p.remove, p.logger)
	defer temps.release()

	audioPath := temps.add(filepath.Join(p.workDir, p.tempName("flac")))
	renderedPath := temps.add(filepath.Join(p.workDir, p.tempName("wav")))

	logger := p.logger.With(
		logging.String("video", req.VideoPath),
		logging.Int("track", req.TrackIndex),
	)
	logger.Info("processing started", logging.String("output", outputPath))
	started := p.now()

	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return "", stageError(StageExtracting, fmt.Errorf("%w: %w", bridge.ErrDirectory, err))
	}

	enterStage(req, StageExtracting)
	emit(req.Sink, StepExtracting, 10)
	if err := p.media.ExtractAudio(ctx, req.VideoPath, audioPath, req.Settings.SampleRate); err != nil {
		return "", p.fail(logger, StageExtracting, err)
	}
	emit(req.Sink, StepExtracted, 25)

	enterStage(req, StageClearing)
	emit(req.Sink, StepPreparing, 30)
	resp, err := p.bridge.ClearTrack(ctx, req.TrackIndex)
	if err != nil {
		return "", p.fail(logger, StageClearing, err)
	}
	if !resp.Success {
		logger.Warn("clear track reported failure, continuing", logging.String("message", resp.MessageOr("")))
	}

	enterStage(req, StageLoading)
	emit(req.Sink, StepLoading, 40)
	if _, err := p.bridge.LoadAudio(ctx, req.TrackIndex, audioPath); err != nil {
		return "", p.fail(logger, StageLoading, err)
	}
	emit(req.Sink, StepLoaded, 55)

	enterStage(req, StageRendering)
	emit(req.Sink, StepRendering, 60)
	if _, err := p.bridge.RenderTrack(ctx, req.TrackIndex, renderedPath); err != nil {
		return "", p.fail(logger, StageRendering, err)
	}
	emit(req.Sink, StepRendered, 80)

	enterStage(req, StageMerging)
	emit(req.Sink, StepMerging, 85)
	if err := p.media.MergeAudioVideo(ctx, req.VideoPath, renderedPath, outputPath, req.Settings); err != nil {
		return "", p.fail(logger, StageMerging, err)
	}
	emit(req.Sink, StepDone, 100)

	logger.Info("processing finished",
		logging.String("output", outputPath),
		logging.Duration("elapsed", p.now().Sub(started)),
	)
	return outputPath, nil
}

func (p *Pipeline) fail(logger *slog.Logger, stage Stage, err error) error {
	logger.Error("processing failed", logging.String("stage", string(stage)), logging.Error(err))
	return stageError(stage, err)
}

// tempName returns render_<unix seconds>_<8 char token>.<ext>.
func (p *Pipeline) tempName(ext string) string {
	return fmt.Sprintf("render_%d_%s.%s", p.now().Unix(), p.token(), ext)
}

func shortToken() string {
	return uuid.NewString()[:8]
}

func validate(req Request) error {
	if strings.TrimSpace(req.VideoPath) == "" {
		return fmt.Errorf("%w: video path is required", ErrInvalidRequest)
	}
	if req.TrackIndex < 0 {
		return fmt.Errorf("%w: track index must not be negative, got %d", ErrInvalidRequest, req.TrackIndex)
	}
	if err := config.ValidateRenderSettings(req.Settings); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func enterStage(req Request, stage Stage) {
	if req.OnStage != nil {
		req.OnStage(stage)
	}
}

func emit(sink ProgressSink, step string, percent int) {
	if sink == nil {
		return
	}
	sink.Progress(domain.ProgressEvent{Step: step, Percent: percent})
}
