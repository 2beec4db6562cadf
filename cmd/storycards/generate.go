package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/generation"
	"github.com/ChaseRain/storycards/internal/service/render"
	"github.com/ChaseRain/storycards/pkg/errors"
)

var (
	generateLevel  string
	generateHTML   string
	generateExport bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Start one generation job and follow it to completion",
	Long: `Start one generation job, print its progress and render the finished
story.

The command exits non-zero when the job cannot be started or ends in
failure. If the backend is already running a job, that job is followed
instead.

Examples:
  storycards generate
  storycards generate --level Advanced --html story.html
  storycards generate --export -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		events, unsubscribe := a.board.Subscribe(64)
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			printProgress(cmd.ErrOrStderr(), events)
		}()

		started, startErr := a.controller.StartLevel(ctx, generateLevel)
		var (
			state   generation.State
			waitErr error
		)
		if startErr == nil && started {
			state, waitErr = a.controller.Wait(ctx)
		}
		unsubscribe()
		<-printed

		switch {
		case startErr != nil:
			return startErr
		case !started:
			return errors.New(errors.ErrCodeBusy, "a generation job is already running")
		}

		if err := a.output(a.session()); err != nil {
			return err
		}
		if waitErr != nil {
			return waitErr
		}
		if state != generation.StateComplete {
			return fmt.Errorf("generation ended in state %s", state)
		}

		if generateHTML != "" {
			if err := a.writeGallery(generateHTML); err != nil {
				return err
			}
		}
		if generateExport {
			story := a.renderer.Story()
			if story == nil {
				return errors.New(errors.ErrCodeStoryUnavailable, "no story to export")
			}
			result, err := a.document.Export(ctx, story)
			if err != nil {
				return err
			}
			return a.output(result)
		}
		return nil
	},
}

// printProgress writes one line per display change until events closes.
func printProgress(w io.Writer, events <-chan board.Event) {
	for ev := range events {
		switch ev.Kind {
		case board.EventState:
			fmt.Fprintf(w, "state: %v\n", ev.Data)
		case board.EventStatus:
			fmt.Fprintf(w, "status: %v\n", ev.Data)
		case board.EventProgress:
			if p, ok := ev.Data.(float64); ok {
				fmt.Fprintf(w, "progress: %.0f%%\n", p)
			}
		case board.EventCard:
			if card, ok := ev.Data.(render.Card); ok {
				fmt.Fprintf(w, "page %d: %s / %s\n", card.PageNumber, card.PrimaryText, card.SecondaryText)
			}
		}
	}
}

func init() {
	generateCmd.Flags().StringVar(&generateLevel, "level", "", "story level: Beginner, Intermediate or Advanced (default: generation.default_level)")
	generateCmd.Flags().StringVar(&generateHTML, "html", "", "write an HTML gallery of the cards to this file")
	generateCmd.Flags().BoolVar(&generateExport, "export", false, "download the story document and card images into storage")

	rootCmd.AddCommand(generateCmd)
}
