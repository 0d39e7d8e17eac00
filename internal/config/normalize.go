package config

import (
	"fmt"
	"os"
	"strings"

	"reaper-video-fx/internal/domain"
)

const (
	defaultFFmpeg = "ffmpeg"

	envCommDir = "REAPER_VIDEO_FX_COMM_DIR"
	envFFmpeg  = "FFMPEG_PATH"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeRender()
	if err := c.normalizeExtension(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CommDir) == "" {
		if value, ok := os.LookupEnv(envCommDir); ok && strings.TrimSpace(value) != "" {
			c.Paths.CommDir = strings.TrimSpace(value)
		} else {
			c.Paths.CommDir = DefaultCommDir()
		}
	}

	var err error
	if c.Paths.CommDir, err = expandPath(strings.TrimSpace(c.Paths.CommDir)); err != nil {
		return fmt.Errorf("paths.comm_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = c.Paths.CommDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		if value, ok := os.LookupEnv(envFFmpeg); ok && strings.TrimSpace(value) != "" {
			c.Tools.FFmpeg = strings.TrimSpace(value)
		} else {
			c.Tools.FFmpeg = defaultFFmpeg
		}
	}
}

func (c *Config) normalizeRender() {
	c.Render = NormalizeRenderSettings(c.Render)
}

// NormalizeRenderSettings trims values and fills blanks with defaults.
func NormalizeRenderSettings(s domain.RenderSettings) domain.RenderSettings {
	defaults := domain.DefaultRenderSettings()

	s.VideoCodec = strings.TrimSpace(s.VideoCodec)
	if s.VideoCodec == "" {
		s.VideoCodec = defaults.VideoCodec
	}
	s.VideoBitrate = strings.TrimSpace(s.VideoBitrate)
	if s.VideoBitrate == "" {
		s.VideoBitrate = defaults.VideoBitrate
	}
	s.AudioCodec = strings.TrimSpace(s.AudioCodec)
	if s.AudioCodec == "" {
		s.AudioCodec = defaults.AudioCodec
	}
	s.AudioBitrate = strings.TrimSpace(s.AudioBitrate)
	if s.AudioBitrate == "" {
		s.AudioBitrate = defaults.AudioBitrate
	}
	if s.SampleRate == 0 {
		s.SampleRate = defaults.SampleRate
	}
	return s
}

func (c *Config) normalizeExtension() error {
	var err error
	if c.Extension.PluginsDir, err = expandPath(strings.TrimSpace(c.Extension.PluginsDir)); err != nil {
		return fmt.Errorf("extension.plugins_dir: %w", err)
	}
	if c.Extension.BundledPath, err = expandPath(strings.TrimSpace(c.Extension.BundledPath)); err != nil {
		return fmt.Errorf("extension.bundled_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
