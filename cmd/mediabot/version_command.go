package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/m3rciful/mediabot/core/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mediabot %s %s\n", buildinfo.String(), runtime.Version())
			return nil
		},
	}
}
