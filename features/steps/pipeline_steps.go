//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"reaper-video-fx/internal/bridge"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/pipeline"

	"github.com/cucumber/godog"
)

// steppingClock advances a fixed step on every reading so a 60 s wait runs in milliseconds.
type steppingClock struct {
	mu      sync.Mutex
	start   time.Time
	current time.Time
	step    time.Duration
}

func newSteppingClock(step time.Duration) *steppingClock {
	start := time.Unix(1_700_000_000, 0)
	return &steppingClock{start: start, current: start, step: step}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(c.step)
	return c.current
}

func (c *steppingClock) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(c.start)
}

// pipelineContext holds test state for pipeline scenarios
type pipelineContext struct {
	base      string
	workDir   string
	commDir   string
	memory    *bridge.MemoryMailbox
	mailbox   bridge.Mailbox
	overrides map[bridge.Kind]bridge.Response
	clock     *steppingClock
	recorder  *pipeline.Recorder
	videoPath string
	result    string
	err       error
}

// SharedPipelineContext is reset before each scenario via Before hook
var SharedPipelineContext *pipelineContext

func InitializePipelineScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		base, err := os.MkdirTemp("", "reaperfx-pipeline-*")
		if err != nil {
			return c, err
		}
		SharedPipelineContext = &pipelineContext{
			base:      base,
			workDir:   filepath.Join(base, "work"),
			commDir:   filepath.Join(base, "comm"),
			overrides: map[bridge.Kind]bridge.Response{},
			recorder:  &pipeline.Recorder{},
		}
		activeCommDir = ""
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedPipelineContext != nil {
			_ = os.RemoveAll(SharedPipelineContext.base)
		}
		SharedPipelineContext = nil
		return c, nil
	})

	ctx.Step(`^a DAW that answers every command successfully$`, aDAWThatAnswersEveryCommandSuccessfully)
	ctx.Step(`^the DAW answers "([^"]*)" with failure "([^"]*)"$`, theDAWAnswersWithFailure)
	ctx.Step(`^a DAW that never responds$`, aDAWThatNeverResponds)
	ctx.Step(`^I process "([^"]*)" on track (\d+) with default settings$`, iProcessOnTrackWithDefaultSettings)
	ctx.Step(`^the result is "([^"]*)" next to the video$`, theResultIsNextToTheVideo)
	ctx.Step(`^progress is reported as "([^"]*)"$`, progressIsReportedAs)
	ctx.Step(`^the DAW received "([^"]*)" for track (\d+)$`, theDAWReceivedForTrack)
	ctx.Step(`^no intermediate audio files remain$`, noIntermediateAudioFilesRemain)
	ctx.Step(`^no output path is produced$`, noOutputPathIsProduced)
	ctx.Step(`^processing fails with a remote failure "([^"]*)"$`, processingFailsWithARemoteFailure)
	ctx.Step(`^processing fails with a timeout$`, processingFailsWithATimeout)
	ctx.Step(`^at least (\d+) seconds elapsed while waiting$`, atLeastSecondsElapsedWhileWaiting)
	ctx.Step(`^the communication directory holds no command or response$`, theCommunicationDirectoryHoldsNoCommandOrResponse)
}

func aDAWThatAnswersEveryCommandSuccessfully() error {
	pc := SharedPipelineContext
	pc.memory = bridge.NewMemoryMailbox(func(_ context.Context, cmd bridge.Command) (bridge.Response, error) {
		if resp, ok := pc.overrides[cmd.Kind]; ok {
			return resp, nil
		}
		if cmd.Kind == bridge.KindRenderTrack {
			if err := os.WriteFile(cmd.OutputPath, []byte("wav"), 0o644); err != nil {
				return bridge.Response{}, err
			}
		}
		return bridge.Response{Success: true}, nil
	})
	pc.mailbox = pc.memory
	return nil
}

func theDAWAnswersWithFailure(kind, message string) error {
	SharedPipelineContext.overrides[bridge.Kind(kind)] = bridge.Response{Success: false, Message: &message}
	return nil
}

func aDAWThatNeverResponds() error {
	pc := SharedPipelineContext
	pc.clock = newSteppingClock(time.Second)
	activeCommDir = pc.commDir
	pc.mailbox = bridge.NewFileMailboxForTests(pc.commDir, time.Millisecond, bridge.ResponseTimeout, pc.clock.Now, nil)
	return nil
}

func iProcessOnTrackWithDefaultSettings(name string, track int) error {
	pc := SharedPipelineContext
	if pc.mailbox == nil {
		return fmt.Errorf("no DAW configured for this scenario")
	}
	if SharedMediaContext == nil || SharedMediaContext.runner == nil {
		return fmt.Errorf("ffmpeg is not configured for this scenario")
	}

	pc.videoPath = filepath.Join(pc.base, name)
	p := pipeline.New(bridge.NewClient(pc.mailbox, nil), newMediaTool(), pc.workDir, nil)
	pc.result, pc.err = p.ProcessVideo(context.Background(), pipeline.Request{
		VideoPath:  pc.videoPath,
		TrackIndex: track,
		Settings:   domain.DefaultRenderSettings(),
		Sink:       pc.recorder,
	})
	return nil
}

func theResultIsNextToTheVideo(name string) error {
	pc := SharedPipelineContext
	if pc.err != nil {
		return fmt.Errorf("processing failed: %w", pc.err)
	}
	if want := filepath.Join(filepath.Dir(pc.videoPath), name); pc.result != want {
		return fmt.Errorf("result = %q, want %q", pc.result, want)
	}
	return nil
}

func progressIsReportedAs(list string) error {
	var want []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		want = append(want, n)
	}
	if got := SharedPipelineContext.recorder.Percents(); !reflect.DeepEqual(got, want) {
		return fmt.Errorf("progress = %v, want %v", got, want)
	}
	return nil
}

func theDAWReceivedForTrack(list string, track int) error {
	pc := SharedPipelineContext
	var want []bridge.Kind
	for _, part := range strings.Split(list, ",") {
		want = append(want, bridge.Kind(strings.TrimSpace(part)))
	}
	if got := pc.memory.Kinds(); !reflect.DeepEqual(got, want) {
		return fmt.Errorf("commands = %v, want %v", got, want)
	}
	for _, cmd := range pc.memory.Sent() {
		if cmd.TrackIndex == nil || *cmd.TrackIndex != track {
			return fmt.Errorf("%s sent for track %v, want %d", cmd.Kind, cmd.TrackIndex, track)
		}
	}
	return nil
}

func noIntermediateAudioFilesRemain() error {
	entries, err := os.ReadDir(SharedPipelineContext.workDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "render_") {
			return fmt.Errorf("intermediate file left behind: %s", entry.Name())
		}
	}
	return nil
}

func noOutputPathIsProduced() error {
	pc := SharedPipelineContext
	if pc.result != "" {
		return fmt.Errorf("unexpected output path %q", pc.result)
	}
	if _, err := os.Stat(pipeline.OutputPath(pc.videoPath)); !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("output file exists or stat failed: %v", err)
	}
	return nil
}

func processingFailsWithARemoteFailure(message string) error {
	err := SharedPipelineContext.err
	if !errors.Is(err, bridge.ErrRemoteFailure) {
		return fmt.Errorf("error = %v, want a remote failure", err)
	}
	var remote *bridge.RemoteError
	if !errors.As(err, &remote) || remote.Message != message {
		return fmt.Errorf("remote error = %v, want message %q", err, message)
	}
	return nil
}

func processingFailsWithATimeout() error {
	if err := SharedPipelineContext.err; !errors.Is(err, bridge.ErrTimeout) {
		return fmt.Errorf("error = %v, want %v", err, bridge.ErrTimeout)
	}
	return nil
}

func atLeastSecondsElapsedWhileWaiting(seconds int) error {
	if got := SharedPipelineContext.clock.elapsed(); got < time.Duration(seconds)*time.Second {
		return fmt.Errorf("elapsed = %s, want at least %ds", got, seconds)
	}
	return nil
}

// activeCommDir is the mailbox directory of the current scenario.
var activeCommDir string

func theCommunicationDirectoryHoldsNoCommandOrResponse() error {
	dir := activeCommDir
	if dir == "" {
		return fmt.Errorf("no communication directory in this scenario")
	}
	for _, name := range []string{bridge.CommandFileName, bridge.ResponseFileName, bridge.CommandFileName + ".tmp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s still present in %s (stat err %v)", name, dir, err)
		}
	}
	return nil
}
