package api

import (
	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/render"
)

type GenerateRequest struct {
	Level string `json:"level"`
}

type GenerateResponse struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
	Level string `json:"level"`
}

type LevelRequest struct {
	Level string `json:"level" binding:"required"`
}

type LevelResponse struct {
	Level  string   `json:"level"`
	Levels []string `json:"levels"`
}

type SessionResponse struct {
	board.Snapshot `yaml:",inline"`
	Level          string `json:"level" yaml:"level"`
	JobID          string `json:"job_id,omitempty" yaml:"job_id,omitempty"`
}

type StoryResponse struct {
	TitlePrimary   string        `json:"title_primary,omitempty" yaml:"title_primary,omitempty"`
	TitleSecondary string        `json:"title_secondary,omitempty" yaml:"title_secondary,omitempty"`
	Cards          []render.Card `json:"cards" yaml:"cards"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// SSE event envelope.
type StreamEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	JobID string      `json:"job_id,omitempty"`
}

const (
	EventTypeSnapshot = "snapshot"
)
