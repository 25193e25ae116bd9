package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "relay",
		Short:        "Relay exchange listing posts as buy signals",
		Long:         "relay watches one Telegram channel (or an announcement feed) for listing posts mentioning \"listed\", \"spot\" and a $TICKER, and posts \"buy TICKER\" to a destination channel.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml (optional, environment and .env also apply)")

	root.AddCommand(runCmd(&configPath))
	root.AddCommand(classifyCmd())
	return root
}
