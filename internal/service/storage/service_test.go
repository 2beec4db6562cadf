package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/pkg/errors"
)

func TestService_SaveAndGet(t *testing.T) {
	dir := t.TempDir()
	svc := New("local", dir, "/files/", logger.NewNop())
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	url, err := svc.Save(context.Background(), "cards/story_card_2", png)
	require.NoError(t, err)
	assert.Equal(t, "/files/cards/story_card_2.png", url)

	onDisk, err := os.ReadFile(filepath.Join(dir, "cards", "story_card_2.png"))
	require.NoError(t, err)
	assert.Equal(t, png, onDisk)

	got, err := svc.Get(context.Background(), "cards/story_card_2.png")
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestService_KeepsExplicitExtension(t *testing.T) {
	svc := New("local", t.TempDir(), "/files", logger.NewNop())

	url, err := svc.Save(context.Background(), "gallery.html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "/files/gallery.html", url)
}

func TestService_DetectExtension(t *testing.T) {
	svc := New("local", t.TempDir(), "", logger.NewNop())

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47}, ".png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, ".jpg"},
		{"gif", []byte("GIF89a"), ".gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), ".webp"},
		{"pdf", []byte("%PDF-1.7"), ".pdf"},
		{"short", []byte{0x01}, ".bin"},
		{"unknown", []byte("hello"), ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.detectExtension(tt.data))
		})
	}
}

func TestService_RejectsEscapingNames(t *testing.T) {
	svc := New("local", t.TempDir(), "", logger.NewNop())

	for _, name := range []string{"../evil.png", "cards/../../evil.png", ""} {
		_, err := svc.Save(context.Background(), name, []byte("x"))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidReq), "name %q: %v", name, err)
	}
}

func TestService_GetMissing(t *testing.T) {
	svc := New("local", t.TempDir(), "", logger.NewNop())

	_, err := svc.Get(context.Background(), "story.pdf")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestService_UnsupportedType(t *testing.T) {
	svc := New("s3", t.TempDir(), "", logger.NewNop())

	_, err := svc.Save(context.Background(), "story.pdf", []byte("%PDF"))
	assert.True(t, errors.Is(err, errors.ErrCodeStorage))
}
