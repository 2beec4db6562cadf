package document

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaseRain/storycards/internal/infra/httpclient"
	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/internal/service/backend"
	"github.com/ChaseRain/storycards/internal/service/storage"
	"github.com/ChaseRain/storycards/internal/testutil"
	"github.com/ChaseRain/storycards/pkg/errors"
)

func newService(t *testing.T, f *testutil.FakeBackend, pages int) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	client := httpclient.New(httpclient.Options{Timeout: time.Second})
	src := backend.New(f.Config(), client, logger.NewNop())
	store := storage.New("local", dir, "/files", logger.NewNop())

	svc := New(src, store, logger.NewNop())
	svc.pageCount = func(rs io.ReadSeeker) (int, error) {
		return pages, nil
	}
	return svc, dir
}

func TestService_Export(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetDocument([]byte("%PDF-1.4 fake"))
	story := testutil.SampleStory(2, 1)

	svc, dir := newService(t, f, 2)
	result, err := svc.Export(context.Background(), story)
	require.NoError(t, err)

	assert.Equal(t, "/files/story.pdf", result.DocumentURL)
	assert.Equal(t, 2, result.DocumentPages)
	assert.Equal(t, []string{"/files/cards/story_card_2.png", "/files/cards/story_card_1.png"}, result.CardURLs)
	assert.Equal(t, 2, f.CardCalls())

	_, err = os.Stat(filepath.Join(dir, "story.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "cards", "story_card_1.png"))
	assert.NoError(t, err)
}

func TestService_ExportPageMismatch(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetDocument([]byte("%PDF-1.4 fake"))

	svc, dir := newService(t, f, 7)
	_, err := svc.Export(context.Background(), testutil.SampleStory(1, 2, 3))

	assert.True(t, errors.Is(err, errors.ErrCodeDocumentInvalid))
	assert.Contains(t, err.Error(), "7 pages")
	_, statErr := os.Stat(filepath.Join(dir, "story.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestService_ExportMissingDocument(t *testing.T) {
	f := testutil.NewFakeBackend(t)

	svc, _ := newService(t, f, 1)
	_, err := svc.Export(context.Background(), testutil.SampleStory(1))

	assert.True(t, errors.Is(err, errors.ErrCodeStoryUnavailable))
}

func TestService_VerifyRejectsNonPDF(t *testing.T) {
	svc := New(nil, nil, logger.NewNop())

	_, err := svc.Verify([]byte("definitely not a pdf"), 1)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentInvalid))
}
