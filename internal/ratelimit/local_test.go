package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAllowsBurstPerUser(t *testing.T) {
	l := NewLocal(2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.Allow(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok, "other users have their own bucket")
}

func TestLocalDisabled(t *testing.T) {
	l := NewLocal(0, time.Minute)

	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), 1)
		require.NoError(t, err)
		require.True(t, ok)
	}
}
