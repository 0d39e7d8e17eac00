//go:build integration

package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reaper-video-fx/internal/bridge"

	"github.com/cucumber/godog"
)

// bridgeExtension mimics REAPER's side of the mailbox: it consumes
// command.json and answers with a fixed response body.
type bridgeExtension struct {
	dir    string
	answer string
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	received []map[string]json.RawMessage
}

func (e *bridgeExtension) run(ctx context.Context) {
	defer close(e.done)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := os.ReadFile(filepath.Join(e.dir, bridge.CommandFileName))
		if err != nil {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		_ = os.Remove(filepath.Join(e.dir, bridge.CommandFileName))
		e.mu.Lock()
		e.received = append(e.received, fields)
		e.mu.Unlock()

		tmp := filepath.Join(e.dir, "response.tmp")
		_ = os.WriteFile(tmp, []byte(e.answer), 0o644)
		_ = os.Rename(tmp, filepath.Join(e.dir, bridge.ResponseFileName))
	}
}

func (e *bridgeExtension) stop() {
	e.cancel()
	<-e.done
}

// transportContext holds test state for mailbox scenarios
type transportContext struct {
	dir       string
	extension *bridgeExtension
	response  bridge.Response
	err       error
}

// SharedTransportContext is reset before each scenario via Before hook
var SharedTransportContext *transportContext

func InitializeTransportScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		base, err := os.MkdirTemp("", "reaperfx-transport-*")
		if err != nil {
			return c, err
		}
		SharedTransportContext = &transportContext{dir: base}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc := SharedTransportContext; tc != nil {
			if tc.extension != nil {
				tc.extension.stop()
			}
			_ = os.RemoveAll(tc.dir)
		}
		SharedTransportContext = nil
		return c, nil
	})

	ctx.Step(`^a communication directory with a stale response "(.*)"$`, aCommunicationDirectoryWithAStaleResponse)
	ctx.Step(`^a bridge extension that answers "(.*)"$`, aBridgeExtensionThatAnswers)
	ctx.Step(`^I send a "([^"]*)" command$`, iSendACommand)
	ctx.Step(`^I send a "([^"]*)" command with a (\d+) millisecond timeout$`, iSendACommandWithTimeout)
	ctx.Step(`^I send a "CLEAR_TRACK" command for track (\d+)$`, iSendAClearTrackCommandForTrack)
	ctx.Step(`^the send succeeds$`, theSendSucceeds)
	ctx.Step(`^the send fails with a timeout$`, theSendFailsWithATimeout)
	ctx.Step(`^the bridge extension received track index (\d+)$`, theBridgeExtensionReceivedTrackIndex)
}

func aCommunicationDirectoryWithAStaleResponse(body string) error {
	tc := SharedTransportContext
	activeCommDir = tc.dir
	return os.WriteFile(filepath.Join(tc.dir, bridge.ResponseFileName), []byte(unescape(body)), 0o644)
}

func aBridgeExtensionThatAnswers(body string) error {
	tc := SharedTransportContext
	activeCommDir = tc.dir
	runCtx, cancel := context.WithCancel(context.Background())
	tc.extension = &bridgeExtension{
		dir:    tc.dir,
		answer: unescape(body),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go tc.extension.run(runCtx)
	return nil
}

func commandFor(kind string) (bridge.Command, error) {
	switch bridge.Kind(kind) {
	case bridge.KindPing:
		return bridge.PingCommand(), nil
	case bridge.KindGetTracks:
		return bridge.GetTracksCommand(), nil
	default:
		return bridge.Command{}, fmt.Errorf("unsupported command %q in this step", kind)
	}
}

func send(cmd bridge.Command, timeout time.Duration) error {
	tc := SharedTransportContext
	box := bridge.NewFileMailboxForTests(tc.dir, 5*time.Millisecond, timeout, nil, nil)
	tc.response, tc.err = box.Send(context.Background(), cmd)
	return nil
}

func iSendACommand(kind string) error {
	cmd, err := commandFor(kind)
	if err != nil {
		return err
	}
	return send(cmd, 5*time.Second)
}

func iSendACommandWithTimeout(kind string, millis int) error {
	cmd, err := commandFor(kind)
	if err != nil {
		return err
	}
	return send(cmd, time.Duration(millis)*time.Millisecond)
}

func iSendAClearTrackCommandForTrack(track int) error {
	return send(bridge.ClearTrackCommand(track), 5*time.Second)
}

func theSendSucceeds() error {
	tc := SharedTransportContext
	if tc.err != nil {
		return tc.err
	}
	if !tc.response.Success {
		return fmt.Errorf("response not successful: %s", tc.response.MessageOr("no message"))
	}
	return nil
}

func theSendFailsWithATimeout() error {
	if err := SharedTransportContext.err; !errors.Is(err, bridge.ErrTimeout) {
		return fmt.Errorf("error = %v, want %v", err, bridge.ErrTimeout)
	}
	return nil
}

func theBridgeExtensionReceivedTrackIndex(track int) error {
	ext := SharedTransportContext.extension
	ext.mu.Lock()
	defer ext.mu.Unlock()
	if len(ext.received) != 1 {
		return fmt.Errorf("extension received %d commands, want 1", len(ext.received))
	}
	raw, ok := ext.received[0]["trackIndex"]
	if !ok {
		return fmt.Errorf("trackIndex missing from command")
	}
	var got int
	if err := json.Unmarshal(raw, &got); err != nil {
		return err
	}
	if got != track {
		return fmt.Errorf("trackIndex = %d, want %d", got, track)
	}
	return nil
}

// unescape turns the \" sequences used inside feature-file quotes into plain quotes.
func unescape(body string) string {
	out := make([]rune, 0, len(body))
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == '"' {
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}
