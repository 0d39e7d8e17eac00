package media

import (
	"context"
	"fmt"
	"log/slog"

	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/logging"
)

// Tool runs ffmpeg for audio extraction and remuxing.
type Tool struct {
	ffmpegPath string
	runner     CommandRunner
	logger     *slog.Logger
}

// Option is a functional option for configuring Tool.
type Option func(*Tool)

// WithFFmpegPath sets a custom ffmpeg executable path.
func WithFFmpegPath(path string) Option {
	return func(t *Tool) {
		if path != "" {
			t.ffmpegPath = path
		}
	}
}

// WithRunner sets a custom command runner (for testing).
func WithRunner(runner CommandRunner) Option {
	return func(t *Tool) {
		t.runner = runner
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) {
		t.logger = logger
	}
}

// NewTool creates an ffmpeg-backed media tool.
func NewTool(opts ...Option) *Tool {
	t := &Tool{
		ffmpegPath: "ffmpeg",
		runner:     &execRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "media")
	return t
}

// FFmpegPath returns the configured executable.
func (t *Tool) FFmpegPath() string {
	return t.ffmpegPath
}

// ExtractAudio writes the audio of videoPath to outputPath as stereo FLAC.
func (t *Tool) ExtractAudio(ctx context.Context, videoPath, outputPath string, sampleRate int) error {
	return t.run(ctx, "extract audio", buildExtractArgs(videoPath, outputPath, sampleRate))
}

// MergeAudioVideo muxes the video of videoPath with audioPath into outputPath.
func (t *Tool) MergeAudioVideo(ctx context.Context, videoPath, audioPath, outputPath string, settings domain.RenderSettings) error {
	return t.run(ctx, "merge audio and video", buildMergeArgs(videoPath, audioPath, outputPath, settings))
}

// VerifyInstalled checks that ffmpeg starts and exits cleanly.
func (t *Tool) VerifyInstalled(ctx context.Context) error {
	return t.run(ctx, "verify ffmpeg", []string{"-hide_banner", "-version"})
}

func (t *Tool) run(ctx context.Context, op string, args []string) error {
	t.logger.Debug("running ffmpeg", logging.String("op", op), logging.Strings("args", args))

	result, err := t.runner.Run(ctx, t.ffmpegPath, args...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		t.logger.Info("ffmpeg stopped", logging.String("op", op), logging.Error(ctxErr))
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	toolErr := &ToolError{
		Op:       op,
		Command:  t.ffmpegPath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
		Err:      err,
		launch:   !result.Started,
	}
	t.logger.Error("ffmpeg failed",
		logging.String("op", op),
		logging.Int("exit_code", result.ExitCode),
		logging.String("stderr", lastLine(result.Stderr)),
		logging.Error(err),
	)
	return toolErr
}
