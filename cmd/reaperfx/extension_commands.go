package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExtensionCommand(ctx *commandContext) *cobra.Command {
	extCmd := &cobra.Command{
		Use:   "extension",
		Short: "Manage the REAPER bridge extension",
	}

	extCmd.AddCommand(newExtensionStatusCommand(ctx))
	extCmd.AddCommand(newExtensionInstallCommand(ctx))
	return extCmd
}

func newExtensionStatusCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the bridge extension is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.extensionManager()
			if err != nil {
				return err
			}
			status := manager.Status()

			switch output {
			case "json":
				return writeJSON(cmd, status)
			case "yaml":
				return writeYAML(cmd, status)
			case "", "table":
			default:
				return fmt.Errorf("unsupported output format %q (want table, json or yaml)", output)
			}

			fmt.Fprintln(cmd.OutOrStdout(), fieldTable([]field{
				{"Installed", yesNo(status.Installed)},
				{"Plugins path", status.Path},
				{"Bundled copy", yesNo(status.BundledAvailable)},
				{"Bundled path", status.BundledPath},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func newExtensionInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Copy the bundled bridge extension into REAPER's UserPlugins directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.extensionManager()
			if err != nil {
				return err
			}
			dest, err := manager.Install()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed bridge extension to %s\n", dest)
			fmt.Fprintln(out, "Restart REAPER to load it.")
			return nil
		},
	}
}
