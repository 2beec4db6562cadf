package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChaseRain/storycards/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session host",
	Long: `Run the session host HTTP server.

On startup the backend's existing story, if any, is rendered. No job is
started until a client posts to /v1/generate.

The server provides:
  - /                  - HTML gallery of the rendered cards
  - /health            - Basic health check
  - /v1/generate       - Start a job
  - /v1/session        - Current session snapshot
  - /v1/session/level  - Select the level for the next job
  - /v1/session/events - Server-sent display events
  - /v1/story          - Rendered cards as JSON
  - /v1/export         - Download the story document and card images
  - <storage.base_url> - Exported files`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if serveAddr != "" {
			a.cfg.Server.Addr = serveAddr
		}

		if found, err := a.renderer.RenderExisting(ctx); err != nil {
			a.log.Warn("failed to render existing story", "error", err)
		} else if found {
			a.log.Info("rendered existing story", "cards", len(a.board.Cards()))
		}

		apiLog := a.log.Component("api")
		handler := api.NewHandler(api.Services{
			Session:  a.controller,
			Board:    a.board,
			Stories:  a.renderer,
			Gallery:  a.gallery,
			Exporter: a.document,
			Files:    a.storage,
		}, apiLog)
		router := api.NewRouter(handler, a.cfg.Storage.BaseURL, apiLog)

		srv := &http.Server{
			Addr:         a.cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
			// Event streams end with the command context.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("starting server", "addr", a.cfg.Server.Addr, "backend", a.cfg.Backend.BaseURL)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				a.log.Error("server error", "error", err)
				return err
			}
		case <-ctx.Done():
		}

		a.log.Info("shutting down server...")
		a.controller.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server forced to shutdown", "error", err)
		}
		a.log.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (default: server.addr from config)")

	rootCmd.AddCommand(serveCmd)
}
