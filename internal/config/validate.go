package config

import (
	"errors"
	"fmt"
	"strings"

	"reaper-video-fx/internal/domain"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.CommDir) == "" {
		return errors.New("paths.comm_dir must be set")
	}
	if err := ValidateRenderSettings(c.Render); err != nil {
		return fmt.Errorf("render.%w", err)
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateRenderSettings rejects settings ffmpeg cannot be invoked with.
func ValidateRenderSettings(s domain.RenderSettings) error {
	if strings.TrimSpace(s.VideoCodec) == "" {
		return errors.New("video_codec must be set")
	}
	if strings.TrimSpace(s.AudioCodec) == "" {
		return errors.New("audio_codec must be set")
	}
	if strings.TrimSpace(s.AudioBitrate) == "" {
		return errors.New("audio_bitrate must be set")
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", s.SampleRate)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
