package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChaseRain/storycards/internal/api"
	"github.com/ChaseRain/storycards/internal/infra/config"
	"github.com/ChaseRain/storycards/internal/infra/httpclient"
	"github.com/ChaseRain/storycards/internal/infra/limiter"
	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/document"
	"github.com/ChaseRain/storycards/internal/service/gallery"
	"github.com/ChaseRain/storycards/internal/service/generation"
	"github.com/ChaseRain/storycards/internal/service/render"
	"github.com/ChaseRain/storycards/internal/service/storage"
)

// app is one session: a backend, its display board and the services
// acting on them.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	backend    *backend.Service
	board      *board.Board
	renderer   *render.Renderer
	controller *generation.Controller
	storage    *storage.Service
	gallery    *gallery.Gallery
	document   *document.Service
	out        io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	lim := limiter.New(cfg.Limiter.MaxConcurrent, cfg.Limiter.RatePerSecond)
	client := httpclient.New(httpclient.Options{
		Timeout:    cfg.HTTPClient.Timeout(),
		MaxRetries: cfg.HTTPClient.MaxRetries,
		RetryDelay: cfg.HTTPClient.RetryDelay(),
		Limiter:    lim,
	})

	backendSvc := backend.New(cfg.Backend, client, log.Component("backend"))
	b := board.New()
	renderer := render.New(backendSvc, b, log.Component("renderer"))
	poller := generation.NewPoller(backendSvc, renderer, b, cfg.Poll.Interval(), log.Component("poller"))
	controller := generation.NewController(backendSvc, poller, b, cfg.Generation.DefaultLevel, log.Component("controller"))
	storageSvc := storage.New(cfg.Storage.Type, cfg.Storage.BasePath, cfg.Storage.BaseURL, log.Component("storage"))

	return &app{
		cfg:        cfg,
		log:        log,
		backend:    backendSvc,
		board:      b,
		renderer:   renderer,
		controller: controller,
		storage:    storageSvc,
		gallery:    gallery.New(),
		document:   document.New(backendSvc, storageSvc, log.Component("document")),
		out:        cmd.OutOrStdout(),
	}, nil
}

func (a *app) close() {
	a.controller.Close()
	_ = a.log.Sync()
}

func (a *app) session() api.SessionResponse {
	return api.SessionResponse{
		Snapshot: a.board.Snapshot(),
		Level:    a.controller.Level(),
		JobID:    a.controller.JobID(),
	}
}

func (a *app) title() gallery.Title {
	story := a.renderer.Story()
	if story == nil {
		return gallery.Title{}
	}
	return gallery.Title{Primary: story.TitlePrimary, Secondary: story.TitleSecondary}
}

// writeGallery renders the current cards to an HTML file at path.
func (a *app) writeGallery(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.gallery.Render(f, a.title(), a.board.Cards()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Info("gallery written", "path", path, "cards", len(a.board.Cards()))
	return nil
}

func (a *app) output(data any) error {
	return api.OutputTo(a.out, format, data)
}
