package bridge

import (
	"context"
	"log/slog"

	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/logging"
)

const (
	defaultTracksMessage = "could not list tracks"
	defaultLoadMessage   = "audio could not be loaded"
	defaultRenderMessage = "render failed"
)

// Client issues typed bridge commands over a Mailbox.
type Client struct {
	mailbox Mailbox
	logger  *slog.Logger
}

// NewClient wraps mailbox.
func NewClient(mailbox Mailbox, logger *slog.Logger) *Client {
	return &Client{mailbox: mailbox, logger: logging.NewComponentLogger(logger, "bridge")}
}

// Ping reports whether the extension answered with success. Errors count as unreachable.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.mailbox.Send(ctx, PingCommand())
	if err != nil {
		c.logger.Debug("ping failed", logging.Error(err))
		return false
	}
	return resp.Success
}

// Tracks lists the tracks of the current REAPER project.
func (c *Client) Tracks(ctx context.Context) ([]domain.Track, error) {
	resp, err := c.mailbox.Send(ctx, GetTracksCommand())
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RemoteError{Command: KindGetTracks, Message: resp.MessageOr(defaultTracksMessage)}
	}
	if resp.Tracks == nil {
		return []domain.Track{}, nil
	}
	return resp.Tracks, nil
}

// ClearTrack removes every item on the track. A success=false answer is
// returned as-is for the caller to judge.
func (c *Client) ClearTrack(ctx context.Context, trackIndex int) (Response, error) {
	return c.mailbox.Send(ctx, ClearTrackCommand(trackIndex))
}

// LoadAudio inserts audioPath on the track.
func (c *Client) LoadAudio(ctx context.Context, trackIndex int, audioPath string) (Response, error) {
	return c.expectSuccess(ctx, LoadAudioCommand(trackIndex, audioPath), defaultLoadMessage)
}

// RenderTrack renders the track to outputPath.
func (c *Client) RenderTrack(ctx context.Context, trackIndex int, outputPath string) (Response, error) {
	return c.expectSuccess(ctx, RenderTrackCommand(trackIndex, outputPath), defaultRenderMessage)
}

func (c *Client) expectSuccess(ctx context.Context, cmd Command, fallback string) (Response, error) {
	resp, err := c.mailbox.Send(ctx, cmd)
	if err != nil {
		return Response{}, err
	}
	if !resp.Success {
		return resp, &RemoteError{Command: cmd.Kind, Message: resp.MessageOr(fallback)}
	}
	return resp, nil
}
