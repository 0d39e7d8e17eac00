package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List the tracks of the open REAPER project",
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(output))
			if format != "table" && format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported output format %q (want table, json or yaml)", output)
			}

			eng, err := ctx.engine()
			if err != nil {
				return err
			}
			tracks, err := eng.ListTracks(cmd.Context())
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, tracks)
			case "yaml":
				return writeYAML(cmd, tracks)
			}

			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tracks in the current project")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), trackTable(tracks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}
