package main

import (
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/mediabot/core/cmd"
	"github.com/m3rciful/mediabot/internal/bot"
	"github.com/m3rciful/mediabot/internal/config"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(ctx)
		},
	}
}

func runBot(ctx *commandContext) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath: ctx.configPath(),
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bot.Bootstrap,
	})
}
