package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaseRain/storycards/internal/api"
	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/generation"
	"github.com/ChaseRain/storycards/internal/service/render"
	"github.com/ChaseRain/storycards/internal/testutil"
)

func writeConfig(t *testing.T, f *testutil.FakeBackend) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`log:
  level: error
backend:
  base_url: %s
http_client:
  max_retries: 0
poll:
  interval_ms: 5
storage:
  base_path: %s
`, f.Server.URL, filepath.Join(dir, "output"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the root command with fresh flag values and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, outputFormat = "", "yaml"
	generateLevel, generateHTML, generateExport = "", "", false
	showHTML, serveAddr = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// cobra hands a subcommand the root context only while its own is
	// unset, so an earlier run's cancelled context would stick.
	for _, c := range rootCmd.Commands() {
		c.SetContext(ctx)
	}
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetStatuses("Processing Page 1", "Compiling PDF", "Complete")
	f.SetStory(testutil.SampleStory(2, 1))
	cfg := writeConfig(t, f)
	htmlPath := filepath.Join(t.TempDir(), "story.html")

	out, err := run(t, "generate", "--config", cfg, "--level", "Advanced", "--html", htmlPath, "-o", "json")
	require.NoError(t, err)

	var session api.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &session), out)
	assert.Equal(t, generation.StateComplete, session.State)
	assert.Equal(t, "Advanced", session.Level)
	assert.NotEmpty(t, session.JobID)
	require.Len(t, session.Cards, 2)
	assert.Equal(t, 2, session.Cards[0].PageNumber)
	assert.Equal(t, []string{"Advanced"}, f.Levels())

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Summer in Helsinki")
}

func TestGenerateCommand_JobFailure(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetStatuses("Processing Page 1", "Error: image model unavailable")
	cfg := writeConfig(t, f)

	out, err := run(t, "generate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, out, "state: failed\n")
	assert.Contains(t, out, "Error: image model unavailable")
	assert.Equal(t, 0, f.StoryCalls())
}

func TestGenerateCommand_InvalidLevel(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	cfg := writeConfig(t, f)

	_, err := run(t, "generate", "--config", cfg, "--level", "Expert")
	require.Error(t, err)
	assert.Equal(t, 0, f.StartCalls())
}

func TestShowCommand(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetStory(testutil.SampleStory(1, 2, 3))
	cfg := writeConfig(t, f)

	out, err := run(t, "show", "--config", cfg, "-o", "json")
	require.NoError(t, err)

	var session api.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &session), out)
	assert.Equal(t, generation.StateIdle, session.State)
	assert.Len(t, session.Cards, 3)
	assert.Equal(t, 0, f.StartCalls())
}

func TestShowCommand_NoStory(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	cfg := writeConfig(t, f)

	out, err := run(t, "show", "--config", cfg, "-o", "json")
	require.NoError(t, err)

	var session api.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &session), out)
	assert.Empty(t, session.Cards)
	assert.Equal(t, 0, f.StartCalls())
}

func TestRun_SequentialCommandsGetFreshContext(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetStatuses("Complete")
	f.SetStory(testutil.SampleStory(1, 2))
	cfg := writeConfig(t, f)

	for i := 0; i < 2; i++ {
		out, err := run(t, "generate", "--config", cfg, "-o", "json")
		require.NoError(t, err, "run %d", i)

		var session api.SessionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &session), out)
		assert.Equal(t, generation.StateComplete, session.State, "run %d", i)
		assert.Len(t, session.Cards, 2, "run %d", i)
	}
	assert.Equal(t, 2, f.StartCalls())
}

func TestRootCommand_RejectsOutputFormat(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	cfg := writeConfig(t, f)

	_, err := run(t, "show", "--config", cfg, "-o", "xml")
	assert.Error(t, err)
}

func TestPrintProgress(t *testing.T) {
	events := make(chan board.Event, 4)
	events <- board.Event{Kind: board.EventState, Data: "observing"}
	events <- board.Event{Kind: board.EventStatus, Data: "Processing Page 2"}
	events <- board.Event{Kind: board.EventProgress, Data: 42.4}
	events <- board.Event{Kind: board.EventCard, Data: render.Card{PageNumber: 2, PrimaryText: "Sivu 2", SecondaryText: "Page 2"}}
	close(events)

	var buf bytes.Buffer
	printProgress(&buf, events)

	assert.Equal(t, "state: observing\nstatus: Processing Page 2\nprogress: 42%\npage 2: Sivu 2 / Page 2\n", buf.String())
}
