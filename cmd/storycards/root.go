package main

import (
	"github.com/spf13/cobra"

	"github.com/ChaseRain/storycards/internal/api"
)

var (
	cfgFile      string
	outputFormat string
	format       api.OutputFormat
)

var rootCmd = &cobra.Command{
	Use:   "storycards",
	Short: "Drive a story generation backend and render its story cards",
	Long: `storycards starts story generation jobs on a backend, follows them to
completion and renders the finished story as one card per page.

It can run as a long-lived session host with an HTTP API and live event
stream, or drive a single job from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		f, err := api.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		format = f
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
}
