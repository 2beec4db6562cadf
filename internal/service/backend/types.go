package backend

import "fmt"

// Page is one page of a story. The illustration is not part of the record;
// it is located by PageNumber.
type Page struct {
	PageNumber    int    `json:"page_number"`
	Type          string `json:"type,omitempty"`
	TextPrimary   string `json:"text_fi"`
	TextSecondary string `json:"text_en"`
}

type Character struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Story is the finished artifact. Pages are in presentation order.
type Story struct {
	TitlePrimary   string      `json:"title_fi,omitempty"`
	TitleSecondary string      `json:"title_en,omitempty"`
	Characters     []Character `json:"characters,omitempty"`
	Pages          []Page      `json:"pages"`
}

// Validate checks that page numbers are positive and unique.
func (s *Story) Validate() error {
	seen := make(map[int]bool, len(s.Pages))
	for i, p := range s.Pages {
		if p.PageNumber <= 0 {
			return fmt.Errorf("page at index %d has non-positive number %d", i, p.PageNumber)
		}
		if seen[p.PageNumber] {
			return fmt.Errorf("page number %d appears more than once", p.PageNumber)
		}
		seen[p.PageNumber] = true
	}
	return nil
}

// JobStatus is the job-status response. Status is free text.
type JobStatus struct {
	Status       string   `json:"status"`
	IsGenerating bool     `json:"is_generating"`
	Logs         []string `json:"logs,omitempty"`
}

// StartAck acknowledges a start request. Busy is set when the backend
// refused because a job was already running.
type StartAck struct {
	Message string
	Busy    bool
}

type startRequest struct {
	Level string `json:"level"`
}

type startResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
