package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/mediabot/core/database"
	"github.com/m3rciful/mediabot/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.localConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return errors.New("history is disabled; set database.enabled")
			}
			if err := coredatabase.RunMigrations(cfg.Database, history.Migrations, history.MigrationsDir(cfg.Database.Driver)); err != nil {
				return err
			}
			db, err := coredatabase.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := history.NewStore(db).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No downloads recorded yet.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "User", "Mode", "Outcome", "Size", "Took", "URL"},
				historyRows(entries, time.Now()),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func historyRows(entries []history.Entry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := e.Outcome
		if e.Cause != "" {
			outcome += " (" + e.Cause + ")"
		}
		size := "-"
		if e.SizeBytes > 0 {
			size = humanize.Bytes(uint64(e.SizeBytes))
		}
		rows = append(rows, []string{
			humanize.RelTime(e.StartedAt, now, "ago", "from now"),
			strconv.FormatInt(e.SessionID, 10),
			e.Mode,
			outcome,
			size,
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			e.Locator,
		})
	}
	return rows
}
