package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/diagnostics"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/engine"
	"reaper-video-fx/internal/extension"
	"reaper-video-fx/internal/logging"
	"reaper-video-fx/internal/pipeline"
)

// coreEngine is the subset of engine.Engine the commands call.
type coreEngine interface {
	Ping(ctx context.Context) bool
	ListTracks(ctx context.Context) ([]domain.Track, error)
	ProcessVideo(ctx context.Context, videoPath string, trackIndex int, settings domain.RenderSettings, sink pipeline.ProgressSink) (string, error)
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	newEngine   func(cfg *config.Config, logger *slog.Logger) coreEngine
	newChecker  func() *diagnostics.Checker
	prompter    Prompter
	interactive func() bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		newEngine: func(cfg *config.Config, logger *slog.Logger) coreEngine {
			return engine.NewFromConfig(cfg, logger)
		},
		newChecker:  diagnostics.NewChecker,
		prompter:    &SurveyPrompter{},
		interactive: stdinIsTerminal,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// engine builds the processing core for the loaded configuration.
func (c *commandContext) engine() (coreEngine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return c.newEngine(cfg, logger), nil
}

func (c *commandContext) extensionManager() (*extension.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return extension.NewManager(cfg.Extension.PluginsDir, cfg.Extension.BundledPath, logging.NewNop()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
