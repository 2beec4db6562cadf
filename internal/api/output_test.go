package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaseRain/storycards/internal/service/board"
	"github.com/ChaseRain/storycards/internal/service/render"
)

func TestOutputTo(t *testing.T) {
	b := board.New()
	b.Append(render.Card{PageNumber: 1, ImageURL: "/c1.png", PrimaryText: "Kesä", SecondaryText: "Summer"})
	data := SessionResponse{Snapshot: b.Snapshot(), Level: "Beginner"}

	var yamlOut bytes.Buffer
	require.NoError(t, OutputTo(&yamlOut, OutputFormatYAML, data))
	assert.Contains(t, yamlOut.String(), "state: idle\n")
	assert.Contains(t, yamlOut.String(), "control_enabled: true\n")
	assert.Contains(t, yamlOut.String(), "page_number: 1\n")
	assert.Contains(t, yamlOut.String(), "level: Beginner\n")
	assert.NotContains(t, yamlOut.String(), "snapshot:")

	var jsonOut bytes.Buffer
	require.NoError(t, OutputTo(&jsonOut, OutputFormatJSON, data))
	assert.Contains(t, jsonOut.String(), `"state": "idle"`)
	assert.Contains(t, jsonOut.String(), `"text_secondary": "Summer"`)

	assert.Error(t, OutputTo(&jsonOut, OutputFormat("xml"), data))
}

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("json")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSON, f)

	_, err = ParseOutputFormat("toml")
	assert.Error(t, err)
}
