package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reaper-video-fx/internal/diagnostics"
	"reaper-video-fx/internal/domain"
)

var errDiagnosticsFailed = errors.New("one or more checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, the communication directory and the bridge extension",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := ctx.extensionManager()
			if err != nil {
				return err
			}

			report := ctx.newChecker().Run(diagnostics.Input{
				FFmpeg:    cfg.FFmpegBinary(),
				CommDir:   cfg.Paths.CommDir,
				WorkDir:   cfg.Paths.WorkDir,
				Extension: manager.Status(),
			})

			switch output {
			case "json":
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return failureError(report)
			case "yaml":
				if err := writeYAML(cmd, report); err != nil {
					return err
				}
				return failureError(report)
			case "", "table":
			default:
				return fmt.Errorf("unsupported output format %q (want table, json or yaml)", output)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("system check", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, item := range report.Items {
				fmt.Fprintln(out, renderStatusLine(item.Name, diagnosticKind(item.Status), item.Message, colorize))
				if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
					fmt.Fprintf(out, "%s%s-> %s\n", statusIndent, statusIndent, item.Hint)
				}
			}
			fmt.Fprintln(out, summarize(report))
			return failureError(report)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func failureError(report domain.DiagnosticReport) error {
	if report.HasFailures {
		return errDiagnosticsFailed
	}
	return nil
}

func summarize(report domain.DiagnosticReport) string {
	parts := make([]string, 0, 3)
	for _, status := range []domain.DiagnosticStatus{
		domain.DiagnosticStatusPass,
		domain.DiagnosticStatusWarn,
		domain.DiagnosticStatusFail,
	} {
		parts = append(parts, fmt.Sprintf("%d %s", report.Count(status), titleCase(string(status))))
	}
	return "Summary: " + strings.Join(parts, ", ")
}
