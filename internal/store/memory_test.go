package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGet_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(100)

	token, found, err := s.Get(ctx, "nonexistent")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, CachedToken{}, token)
}

func TestMemoryPutAndGet_Success(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(100)

	expected := CachedToken{UserID: "user-1", AccessToken: "T1", ExpirationTime: 1000}

	err := s.Put(ctx, expected)
	require.NoError(t, err)

	token, found, err := s.Get(ctx, "user-1")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, expected, token)
}

func TestMemoryPut_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(100)

	require.NoError(t, s.Put(ctx, CachedToken{UserID: "user-1", AccessToken: "T1", ExpirationTime: 1000}))
	require.NoError(t, s.Put(ctx, CachedToken{UserID: "user-1", AccessToken: "T2", ExpirationTime: 2000}))

	token, found, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "T2", token.AccessToken)
	assert.Equal(t, int64(2000), token.ExpirationTime)
}

func TestMemoryGet_ExpiredTokenStillReturned(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(100)

	// expiration is long in the past: the store does not interpret it
	require.NoError(t, s.Put(ctx, CachedToken{UserID: "user-1", AccessToken: "stale", ExpirationTime: 1}))

	token, found, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "stale", token.AccessToken)
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(100)

	require.NoError(t, s.Put(ctx, CachedToken{UserID: "user-1", AccessToken: "T1"}))
	_, _, _ = s.Get(ctx, "user-1")
	_, _, _ = s.Get(ctx, "user-2")

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}
