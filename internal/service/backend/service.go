package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ChaseRain/storycards/internal/infra/config"
	"github.com/ChaseRain/storycards/internal/infra/httpclient"
	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/pkg/errors"
)

const busyMessage = "Already generating"

// Service talks to the story generation backend.
type Service struct {
	cfg        config.BackendConfig
	httpClient *httpclient.Client
	logger     *logger.Logger
}

func New(cfg config.BackendConfig, client *httpclient.Client, log *logger.Logger) *Service {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Service{
		cfg:        cfg,
		httpClient: client,
		logger:     log,
	}
}

func (s *Service) url(path string) string {
	return s.cfg.BaseURL + path
}

// StartGeneration asks the backend to start a job for level. It is sent
// exactly once; the transport never retries it.
func (s *Service) StartGeneration(ctx context.Context, level string) (*StartAck, error) {
	bodyBytes, err := json.Marshal(startRequest{Level: level})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	resp, err := s.httpClient.PostJSON(ctx, s.url(s.cfg.StartPath), bodyBytes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStartRequest, "start request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStartRequest, "failed to read response")
	}

	var parsed startResponse
	_ = json.Unmarshal(respBody, &parsed)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &StartAck{Message: parsed.Message}, nil
	case (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict) &&
		strings.Contains(parsed.Error, busyMessage):
		s.logger.Warn("backend already running a job, attaching", "status", resp.StatusCode)
		return &StartAck{Message: parsed.Error, Busy: true}, nil
	default:
		s.logger.Error("start request rejected", "status", resp.StatusCode, "body", string(respBody))
		return nil, errors.New(errors.ErrCodeStartRequest, fmt.Sprintf("backend returned %d", resp.StatusCode))
	}
}

// JobStatus fetches the current job status.
func (s *Service) JobStatus(ctx context.Context) (*JobStatus, error) {
	var status JobStatus
	if err := s.httpClient.GetJSON(ctx, s.url(s.cfg.StatusPath), &status); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePoll, "status query failed")
	}
	return &status, nil
}

// StoryResult fetches the most recent finished story.
func (s *Service) StoryResult(ctx context.Context) (*Story, error) {
	var story Story
	if err := s.httpClient.GetJSON(ctx, s.url(s.cfg.StoryPath), &story); err != nil {
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "no story on backend")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStoryUnavailable, "story fetch failed")
	}

	if err := story.Validate(); err != nil {
		s.logger.Warn("story has inconsistent page numbers", "error", err)
	}
	return &story, nil
}

// StoryExists reports whether the story endpoint answers with a 2xx status.
// The body is not inspected.
func (s *Service) StoryExists(ctx context.Context) (bool, error) {
	resp, err := s.httpClient.Get(ctx, s.url(s.cfg.StoryPath))
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStoryUnavailable, "story check failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// CardURL resolves the composited illustration of a page by convention.
func (s *Service) CardURL(pageNumber int) string {
	return s.url(fmt.Sprintf(s.cfg.CardPathTemplate, pageNumber))
}

func (s *Service) FetchCard(ctx context.Context, pageNumber int) ([]byte, error) {
	data, err := s.httpClient.GetBytes(ctx, s.CardURL(pageNumber))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoryUnavailable, fmt.Sprintf("card %d fetch failed", pageNumber))
	}
	return data, nil
}

// FetchDocument downloads the compiled story document.
func (s *Service) FetchDocument(ctx context.Context) ([]byte, error) {
	data, err := s.httpClient.GetBytes(ctx, s.url(s.cfg.DocumentPath))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoryUnavailable, "document fetch failed")
	}
	return data, nil
}
