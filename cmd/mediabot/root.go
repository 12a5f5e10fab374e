package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/m3rciful/mediabot/internal/config"
)

type commandContext struct {
	configFlag *string
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// localConfig loads the configuration without requiring Telegram settings.
func (c *commandContext) localConfig() (*config.Config, error) {
	return config.LoadLocal(c.configPath())
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "mediabot",
		Short:         "Telegram bot that downloads audio and video by URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(ctx)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}
