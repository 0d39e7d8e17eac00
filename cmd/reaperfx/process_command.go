package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reaper-video-fx/internal/config"
	"reaper-video-fx/internal/domain"
	"reaper-video-fx/internal/pipeline"
)

type renderFlags struct {
	videoCodec   string
	videoBitrate string
	audioCodec   string
	audioBitrate string
	sampleRate   int
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var track int
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "process VIDEO",
		Short: "Run a video's audio through a REAPER track and remux the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			info, err := os.Stat(videoPath)
			if err != nil {
				return fmt.Errorf("inspect video %q: %w", videoPath, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory, not a video file", videoPath)
			}

			eng, err := ctx.engine()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("track") {
				if !ctx.interactive() {
					return fmt.Errorf("--track is required when stdin is not a terminal")
				}
				tracks, err := eng.ListTracks(cmd.Context())
				if err != nil {
					return err
				}
				track, err = ctx.prompter.SelectTrack(tracks)
				if err != nil {
					return fmt.Errorf("select track: %w", err)
				}
			}

			settings := flags.apply(cmd, cfg.Render)
			out := cmd.OutOrStdout()
			sink := pipeline.SinkFunc(func(event domain.ProgressEvent) {
				writeProgress(out, event)
			})

			outputPath, err := eng.ProcessVideo(cmd.Context(), videoPath, track, settings, sink)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Output", statusOK, outputPath, shouldColorize(out)))
			return nil
		},
	}

	defaults := domain.DefaultRenderSettings()
	cmd.Flags().IntVarP(&track, "track", "t", 0, "Zero-based REAPER track index (prompted when omitted)")
	cmd.Flags().StringVar(&flags.videoCodec, "video-codec", defaults.VideoCodec, "Video codec for the remux (copy keeps the stream)")
	cmd.Flags().StringVar(&flags.videoBitrate, "video-bitrate", defaults.VideoBitrate, "Video bitrate when re-encoding (0 lets ffmpeg choose)")
	cmd.Flags().StringVar(&flags.audioCodec, "audio-codec", defaults.AudioCodec, "Audio codec for the output")
	cmd.Flags().StringVar(&flags.audioBitrate, "audio-bitrate", defaults.AudioBitrate, "Audio bitrate for the output")
	cmd.Flags().IntVar(&flags.sampleRate, "sample-rate", defaults.SampleRate, "Sample rate of the extracted audio")
	return cmd
}

// apply overlays explicitly set flags on the configured render defaults.
func (f renderFlags) apply(cmd *cobra.Command, base domain.RenderSettings) domain.RenderSettings {
	settings := base
	changed := cmd.Flags().Changed
	if changed("video-codec") {
		settings.VideoCodec = f.videoCodec
	}
	if changed("video-bitrate") {
		settings.VideoBitrate = f.videoBitrate
	}
	if changed("audio-codec") {
		settings.AudioCodec = f.audioCodec
	}
	if changed("audio-bitrate") {
		settings.AudioBitrate = f.audioBitrate
	}
	if changed("sample-rate") {
		settings.SampleRate = f.sampleRate
	}
	return settings
}

func writeProgress(out io.Writer, event domain.ProgressEvent) {
	fmt.Fprintf(out, "[%3d%%] %s\n", event.Percent, event.Step)
}
