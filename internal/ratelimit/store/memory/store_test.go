package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AllowUpToLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := s.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.False(t, result.ResetAt.IsZero())
}

func TestStore_KeysAreIndependent(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Allow(ctx, "1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
	}
	blocked, err := s.Allow(ctx, "1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := s.Allow(ctx, "5.6.7.8", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestStore_WindowSlides(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Allow(ctx, "1.2.3.4", 1, 20*time.Millisecond)
	require.NoError(t, err)
	blocked, err := s.Allow(ctx, "1.2.3.4", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	time.Sleep(25 * time.Millisecond)
	again, err := s.Allow(ctx, "1.2.3.4", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

func TestStore_Reset(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Allow(ctx, "1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx, "1.2.3.4"))

	result, err := s.Allow(ctx, "1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
