package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := New(1, 100)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.Error(t, err, "second slot should not be available")

	release()

	release, err = l.Acquire(context.Background())
	require.NoError(t, err)
	release()
}

func TestLimiter_AcquireHonorsContext(t *testing.T) {
	l := New(1, 100)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_ClampsToOne(t *testing.T) {
	l := New(0, 0)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release()
}
