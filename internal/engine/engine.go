// Package engine exposes the caller-facing operations: ping, list tracks and
// process a video. It enforces that only one REAPER exchange is in flight.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"reaper-video-fx/internal/bridge"
	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/logging"
	"reaper-video-fx/internal/media"
	"reaper-video-fx/internal/pipeline"
)

// Locker guards the communication directory across processes.
type Locker interface {
	TryLock() error
	Unlock() error
}

// Engine serializes every operation against the shared mailbox.
type Engine struct {
	client   *bridge.Client
	pipeline *pipeline.Pipeline
	lock     Locker
	mu       sync.Mutex
	logger   *slog.Logger
}

// New wires an engine. lock may be nil when only one process uses the directory.
func New(client *bridge.Client, pipe *pipeline.Pipeline, lock Locker, logger *slog.Logger) *Engine {
	return &Engine{
		client:   client,
		pipeline: pipe,
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "engine"),
	}
}

// NewFromConfig builds the production stack: file mailbox, ffmpeg tool and flock guard.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Engine {
	mailbox := bridge.NewFileMailbox(cfg.Paths.CommDir, logger)
	client := bridge.NewClient(mailbox, logger)
	tool := media.NewTool(media.WithFFmpegPath(cfg.FFmpegBinary()), media.WithLogger(logger))
	pipe := pipeline.New(client, tool, cfg.Paths.WorkDir, logger)
	return New(client, pipe, bridge.NewLock(cfg.Paths.CommDir), logger)
}

// Ping reports whether REAPER answered. A busy engine reports false.
func (e *Engine) Ping(ctx context.Context) bool {
	release, err := e.acquire()
	if err != nil {
		e.logger.Debug("ping skipped", logging.Error(err))
		return false
	}
	defer release()
	return e.client.Ping(ctx)
}

// ListTracks returns the tracks of the open REAPER project.
func (e *Engine) ListTracks(ctx context.Context) ([]domain.Track, error) {
	release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.client.Tracks(ctx)
}

// ProcessVideo runs the pipeline for one video with default stage callbacks.
func (e *Engine) ProcessVideo(ctx context.Context, videoPath string, trackIndex int, settings domain.RenderSettings, sink pipeline.ProgressSink) (string, error) {
	return e.Process(ctx, pipeline.Request{
		VideoPath:  videoPath,
		TrackIndex: trackIndex,
		Settings:   settings,
		Sink:       sink,
	})
}

// Process runs req. Blank settings fields fall back to defaults. A second call
// while one is active fails immediately with bridge.ErrBusy.
func (e *Engine) Process(ctx context.Context, req pipeline.Request) (string, error) {
	release, err := e.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	req.Settings = config.NormalizeRenderSettings(req.Settings)
	return e.pipeline.ProcessVideo(ctx, req)
}

func (e *Engine) acquire() (func(), error) {
	if !e.mu.TryLock() {
		return nil, bridge.ErrBusy
	}
	if e.lock != nil {
		if err := e.lock.TryLock(); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	return func() {
		if e.lock != nil {
			if err := e.lock.Unlock(); err != nil {
				e.logger.Warn("release bridge lock", logging.Error(err))
			}
		}
		e.mu.Unlock()
	}, nil
}
