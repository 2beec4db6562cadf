package render

import (
	"context"
	"sync"

	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
)

// Card is the visual unit for one page.
type Card struct {
	PageNumber    int    `json:"page_number" yaml:"page_number"`
	ImageURL      string `json:"image_url" yaml:"image_url"`
	PrimaryText   string `json:"text_primary" yaml:"text_primary"`
	SecondaryText string `json:"text_secondary" yaml:"text_secondary"`
}

// Container receives cards in presentation order. It is append-only.
type Container interface {
	Append(card Card)
}

// StorySource is the subset of the backend the renderer needs.
type StorySource interface {
	StoryResult(ctx context.Context) (*backend.Story, error)
	StoryExists(ctx context.Context) (bool, error)
	CardURL(pageNumber int) string
}

type Renderer struct {
	source    StorySource
	container Container
	logger    *logger.Logger

	mu    sync.RWMutex
	story *backend.Story
}

func New(source StorySource, container Container, log *logger.Logger) *Renderer {
	return &Renderer{
		source:    source,
		container: container,
		logger:    log,
	}
}

// Render fetches the current story and appends one card per page in
// response order. It does not clear the container; callers that render
// twice without clearing get duplicate cards.
func (r *Renderer) Render(ctx context.Context) (*backend.Story, error) {
	story, err := r.source.StoryResult(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.story = story
	r.mu.Unlock()

	for _, page := range story.Pages {
		r.container.Append(Card{
			PageNumber:    page.PageNumber,
			ImageURL:      r.source.CardURL(page.PageNumber),
			PrimaryText:   page.TextPrimary,
			SecondaryText: page.TextSecondary,
		})
	}

	r.logger.Info("story rendered", "pages", len(story.Pages), "title", story.TitleSecondary)
	return story, nil
}

// RenderExisting renders the backend's story if one already exists. It is
// the startup path and never starts a job.
func (r *Renderer) RenderExisting(ctx context.Context) (bool, error) {
	exists, err := r.source.StoryExists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		r.logger.Debug("no existing story on backend")
		return false, nil
	}

	if _, err := r.Render(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Story returns the most recently fetched story, or nil.
func (r *Renderer) Story() *backend.Story {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.story
}
