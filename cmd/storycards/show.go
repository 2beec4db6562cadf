package main

import (
	"github.com/spf13/cobra"
)

var showHTML string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the backend's existing story without starting a job",
	Long: `Render the story the backend already holds, if any, and print the
session snapshot. No generation job is started.

Examples:
  storycards show
  storycards show --html story.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		found, err := a.renderer.RenderExisting(ctx)
		if err != nil {
			return err
		}
		if !found {
			a.log.Info("backend has no story yet")
		}

		if showHTML != "" && found {
			if err := a.writeGallery(showHTML); err != nil {
				return err
			}
		}
		return a.output(a.session())
	},
}

func init() {
	showCmd.Flags().StringVar(&showHTML, "html", "", "write an HTML gallery of the cards to this file")

	rootCmd.AddCommand(showCmd)
}
