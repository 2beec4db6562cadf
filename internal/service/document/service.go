// Package document exports a finished story: the compiled PDF and the
// per-page card images.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/pkg/errors"
)

type Source interface {
	FetchDocument(ctx context.Context) ([]byte, error)
	FetchCard(ctx context.Context, pageNumber int) ([]byte, error)
}

type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Result lists where the exported files were stored.
type Result struct {
	DocumentURL   string   `json:"document_url" yaml:"document_url"`
	DocumentPages int      `json:"document_pages" yaml:"document_pages"`
	CardURLs      []string `json:"card_urls" yaml:"card_urls"`
}

type Service struct {
	source    Source
	store     Store
	pageCount func(rs io.ReadSeeker) (int, error)
	logger    *logger.Logger
}

func New(source Source, store Store, log *logger.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		pageCount: func(rs io.ReadSeeker) (int, error) {
			return api.PageCount(rs, nil)
		},
		logger: log,
	}
}

// Export downloads the story document and card images into the store. The
// document must have one page per story page.
func (s *Service) Export(ctx context.Context, story *backend.Story) (*Result, error) {
	data, err := s.source.FetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := s.Verify(data, len(story.Pages))
	if err != nil {
		return nil, err
	}

	docURL, err := s.store.Save(ctx, "story.pdf", data)
	if err != nil {
		return nil, err
	}

	result := &Result{DocumentURL: docURL, DocumentPages: pages}
	for _, page := range story.Pages {
		img, err := s.source.FetchCard(ctx, page.PageNumber)
		if err != nil {
			return nil, err
		}
		url, err := s.store.Save(ctx, fmt.Sprintf("cards/story_card_%d", page.PageNumber), img)
		if err != nil {
			return nil, err
		}
		result.CardURLs = append(result.CardURLs, url)
	}

	s.logger.Info("story exported", "document", docURL, "pages", pages, "cards", len(result.CardURLs))
	return result, nil
}

// Verify checks that data is a PDF with expectedPages pages and returns the count.
func (s *Service) Verify(data []byte, expectedPages int) (int, error) {
	pages, err := s.pageCount(bytes.NewReader(data))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDocumentInvalid, "document is not a readable PDF")
	}
	if pages != expectedPages {
		return pages, errors.New(errors.ErrCodeDocumentInvalid,
			fmt.Sprintf("document has %d pages, story has %d", pages, expectedPages))
	}
	return pages, nil
}
