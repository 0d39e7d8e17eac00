//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/media"

	"github.com/cucumber/godog"
)

// recordingRunner stands in for ffmpeg: it records every invocation and
// creates the output file named by the last argument.
type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (media.CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], []byte("media"), 0o644); err != nil {
			return media.CommandResult{Started: true, ExitCode: 1, Stderr: err.Error()}, err
		}
	}
	return media.CommandResult{Started: true}, nil
}

func (r *recordingRunner) lastArgs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// mediaContext holds test state for media scenarios
type mediaContext struct {
	runner *recordingRunner
	dir    string
	err    error
}

// SharedMediaContext is reset before each scenario via Before hook
var SharedMediaContext *mediaContext

func InitializeMediaScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "reaperfx-media-*")
		if err != nil {
			return c, err
		}
		SharedMediaContext = &mediaContext{dir: dir}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedMediaContext != nil {
			_ = os.RemoveAll(SharedMediaContext.dir)
		}
		SharedMediaContext = nil
		return c, nil
	})

	ctx.Step(`^ffmpeg always exits successfully$`, ffmpegAlwaysExitsSuccessfully)
	ctx.Step(`^I merge with video codec "([^"]*)" and video bitrate "([^"]*)"$`, iMergeWithVideoCodecAndBitrate)
	ctx.Step(`^the ffmpeg arguments (include|do not include) a video bitrate flag$`, theFFmpegArgumentsVideoBitrateFlag)
}

func ffmpegAlwaysExitsSuccessfully() error {
	SharedMediaContext.runner = &recordingRunner{}
	return nil
}

func newMediaTool() *media.Tool {
	return media.NewTool(media.WithRunner(SharedMediaContext.runner))
}

func iMergeWithVideoCodecAndBitrate(codec, bitrate string) error {
	mc := SharedMediaContext
	settings := domain.DefaultRenderSettings()
	settings.VideoCodec = codec
	settings.VideoBitrate = bitrate

	mc.err = newMediaTool().MergeAudioVideo(context.Background(),
		filepath.Join(mc.dir, "in.mp4"),
		filepath.Join(mc.dir, "in.wav"),
		filepath.Join(mc.dir, "out.mp4"),
		settings,
	)
	return mc.err
}

func theFFmpegArgumentsVideoBitrateFlag(presence string) error {
	args := SharedMediaContext.runner.lastArgs()
	found := false
	for _, arg := range args {
		if arg == "-b:v" {
			found = true
		}
	}
	want := presence == "include"
	if found != want {
		return fmt.Errorf("video bitrate flag present = %v, want %v (args %v)", found, want, args)
	}
	return nil
}
