package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/mediabot/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that yt-dlp and ffmpeg are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.localConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.MediaRequirements(cfg.Media.YTDLPPath, cfg.Media.FFmpegPath))

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				detail := s.Path
				if !s.Available {
					state = "missing"
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, s.Command, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"},
				rows,
				nil,
			))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}
}
