package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/mediabot/internal/fetch"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove leftover download workspaces",
		Long:  "Remove workspaces left behind by a crashed bot. Refuses to run while the bot holds the scratch directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.localConfig()
			if err != nil {
				return err
			}
			age := olderThan
			if age <= 0 {
				age = cfg.Scratch.StaleAfter
			}
			if age <= 0 {
				age = time.Hour
			}

			lock, err := fetch.LockRoot(cfg.Scratch.Dir)
			if errors.Is(err, fetch.ErrRootLocked) {
				return fmt.Errorf("%s is in use by a running bot", cfg.Scratch.Dir)
			}
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			res := fetch.SweepStale(cfg.Scratch.Dir, age, time.Now())
			out := cmd.OutOrStdout()
			for _, dir := range res.Removed {
				fmt.Fprintf(out, "removed %s\n", dir)
			}
			fmt.Fprintf(out, "%d workspace(s) older than %s removed from %s\n", len(res.Removed), age, cfg.Scratch.Dir)
			return res.Err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum workspace age (defaults to scratch.stale_after, then 1h)")
	return cmd
}
