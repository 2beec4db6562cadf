package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the finished story document and card images",
	Long: `Fetch the backend's finished story, download its compiled PDF and the
card image of every page into storage. The PDF must have one page per
story page.

Examples:
  storycards export
  STORAGE_BASE_PATH=./out storycards export -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		story, err := a.renderer.Render(ctx)
		if err != nil {
			return err
		}

		result, err := a.document.Export(ctx, story)
		if err != nil {
			return err
		}
		return a.output(result)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
