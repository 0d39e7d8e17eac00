package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotResponding = errors.New("REAPER is not responding; is the bridge extension loaded?")

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check whether REAPER answers on the bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.engine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if !eng.Ping(cmd.Context()) {
				fmt.Fprintln(out, renderStatusLine("REAPER", statusError, "no response", colorize))
				return errNotResponding
			}
			fmt.Fprintln(out, renderStatusLine("REAPER", statusOK, "responding", colorize))
			return nil
		},
	}
}
