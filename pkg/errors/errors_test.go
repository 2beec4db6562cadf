package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[BUSY] job already active", New(ErrCodeBusy, "job already active").Error())
	assert.Equal(t, "[POLL_FAILED] status query: unexpected EOF",
		Wrap(io.ErrUnexpectedEOF, ErrCodePoll, "status query").Error())
}

func TestIs(t *testing.T) {
	err := Wrap(io.EOF, ErrCodeStartRequest, "start request failed")
	wrapped := fmt.Errorf("controller: %w", err)

	assert.True(t, Is(err, ErrCodeStartRequest))
	assert.True(t, Is(wrapped, ErrCodeStartRequest))
	assert.False(t, Is(wrapped, ErrCodePoll))
	assert.False(t, Is(io.EOF, ErrCodeStartRequest))
	assert.ErrorIs(t, wrapped, io.EOF)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(fmt.Errorf("x: %w", New(ErrCodeNotFound, "no story"))))
	assert.Equal(t, ErrCodeInternal, CodeOf(io.EOF))
}
