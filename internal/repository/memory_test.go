package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVStore(t *testing.T) {
	repo := NewMemoryKVStore()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "session_token", "tok"))

		got, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok", got)
	})

	t.Run("MissingKey", func(t *testing.T) {
		got, ok, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, got)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, "session_token"))
		require.NoError(t, repo.Remove(ctx, "session_token"))
		_, ok, _ := repo.Get(ctx, "session_token")
		assert.False(t, ok)
	})

	t.Run("Batch", func(t *testing.T) {
		require.NoError(t, repo.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))
		v, ok, _ := repo.Get(ctx, "b")
		assert.True(t, ok)
		assert.Equal(t, "2", v)

		require.NoError(t, repo.RemoveMany(ctx, "a", "b", "c"))
		_, ok, _ = repo.Get(ctx, "a")
		assert.False(t, ok)
	})
}
