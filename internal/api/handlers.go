package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ChaseRain/storycards/internal/infra/config"
	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/document"
	"github.com/ChaseRain/storycards/internal/service/gallery"
	"github.com/ChaseRain/storycards/internal/service/generation"
	"github.com/ChaseRain/storycards/pkg/errors"
)

// Session is the generation controller as seen by the API.
type Session interface {
	StartLevel(ctx context.Context, level string) (bool, error)
	SetLevel(level string) error
	Level() string
	State() generation.State
	JobID() string
}

// StoryHolder exposes the most recently rendered story.
type StoryHolder interface {
	Story() *backend.Story
}

type Exporter interface {
	Export(ctx context.Context, story *backend.Story) (*document.Result, error)
}

// FileStore serves exported files by name.
type FileStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

// Services are the session components the handlers act on.
type Services struct {
	Session  Session
	Board    *board.Board
	Stories  StoryHolder
	Gallery  *gallery.Gallery
	Exporter Exporter
	Files    FileStore
}

type Handler struct {
	session  Session
	board    *board.Board
	stories  StoryHolder
	gallery  *gallery.Gallery
	exporter Exporter
	files    FileStore
	logger   *logger.Logger
}

func NewHandler(svc Services, log *logger.Logger) *Handler {
	return &Handler{
		session:  svc.Session,
		board:    svc.Board,
		stories:  svc.Stories,
		gallery:  svc.Gallery,
		exporter: svc.Exporter,
		files:    svc.Files,
		logger:   log,
	}
}

func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("invalid request", "error", err)
			h.writeError(c, http.StatusBadRequest, errors.Wrap(err, errors.ErrCodeInvalidReq, "invalid request body"))
			return
		}
	}

	started, err := h.session.StartLevel(c.Request.Context(), req.Level)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !started {
		h.writeError(c, http.StatusConflict, errors.New(errors.ErrCodeBusy, "a generation job is already running"))
		return
	}

	c.JSON(http.StatusAccepted, GenerateResponse{
		JobID: h.session.JobID(),
		State: string(h.session.State()),
		Level: h.session.Level(),
	})
}

func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) SetLevel(c *gin.Context) {
	var req LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, errors.Wrap(err, errors.ErrCodeInvalidReq, "level is required"))
		return
	}
	if err := h.session.SetLevel(req.Level); err != nil {
		h.writeError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, LevelResponse{Level: h.session.Level(), Levels: config.Levels})
}

// Events streams display changes as server-sent events, starting with a
// snapshot of the current display.
func (h *Handler) Events(c *gin.Context) {
	events, unsubscribe := h.board.Subscribe(64)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	sendEvent := func(eventType string, data interface{}) {
		event := StreamEvent{
			Event: eventType,
			Data:  data,
			JobID: h.session.JobID(),
		}
		jsonData, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "event: %s\n", eventType)
		fmt.Fprintf(c.Writer, "data: %s\n\n", jsonData)
		c.Writer.Flush()
	}

	sendEvent(EventTypeSnapshot, h.snapshot())

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			sendEvent(string(ev.Kind), ev.Data)
		}
	}
}

func (h *Handler) Story(c *gin.Context) {
	cards := h.board.Cards()
	if len(cards) == 0 {
		h.writeError(c, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "no story rendered"))
		return
	}

	resp := StoryResponse{Cards: cards}
	if story := h.stories.Story(); story != nil {
		resp.TitlePrimary = story.TitlePrimary
		resp.TitleSecondary = story.TitleSecondary
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Gallery(c *gin.Context) {
	var title gallery.Title
	if story := h.stories.Story(); story != nil {
		title = gallery.Title{Primary: story.TitlePrimary, Secondary: story.TitleSecondary}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.gallery.Render(c.Writer, title, h.board.Cards()); err != nil {
		h.logger.Error("failed to render gallery", "error", err)
	}
}

// Export downloads the rendered story's document and card images into
// storage.
func (h *Handler) Export(c *gin.Context) {
	if h.session.State().IsActive() {
		h.writeError(c, http.StatusConflict, errors.New(errors.ErrCodeBusy, "a generation job is running"))
		return
	}
	story := h.stories.Story()
	if story == nil {
		h.writeError(c, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "no story rendered"))
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), story)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// File serves a previously exported file.
func (h *Handler) File(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	data, err := h.files.Get(c.Request.Context(), name)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) snapshot() SessionResponse {
	return SessionResponse{
		Snapshot: h.board.Snapshot(),
		Level:    h.session.Level(),
		JobID:    h.session.JobID(),
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)

	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeStartRequest, errors.ErrCodeStoryUnavailable, errors.ErrCodeDocumentInvalid:
		status = http.StatusBadGateway
	case errors.ErrCodeInvalidLevel, errors.ErrCodeInvalidReq:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	}
	h.writeError(c, status, err)
}

func (h *Handler) writeError(c *gin.Context, status int, err error) {
	c.JSON(status, ErrorResponse{Code: errors.CodeOf(err), Message: err.Error()})
}
