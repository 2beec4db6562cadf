package generation

// Display is the user-facing surface the lifecycle drives: one generate
// control, a status line, a progress indicator and the story area.
type Display interface {
	SetControlEnabled(enabled bool)
	ClearStory()
	ShowState(state State)
	ShowStatus(status string, logs []string)
	ShowProgress(percent float64)
}

const (
	startFailedText       = "Failed to start generation"
	statusUnavailableText = "Error: status unavailable"
	storyUnavailableText  = "Error: story unavailable"
)
