package repository

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockKV) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestFailoverKVStore(t *testing.T) {
	primary := new(mockKV)
	fallback := NewMemoryKVStore()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverKVStore(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "session_token").Return("tok", true, nil).Once()

		got, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok", got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailure", func(t *testing.T) {
		primary.On("Set", ctx, "session_token", "tok2").Return(errors.New("connection refused")).Once()

		require.NoError(t, repo.Set(ctx, "session_token", "tok2"))
		assert.True(t, repo.isDown.Load())

		got, ok, err := fallback.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok2", got)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		got, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok2", got)
		primary.AssertNotCalled(t, "Get", ctx, "session_token")
	})

	t.Run("BatchOnFallback", func(t *testing.T) {
		require.NoError(t, repo.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))
		v, ok, _ := fallback.Get(ctx, "a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})

	t.Run("Recovery", func(t *testing.T) {
		repo.mu.Lock()
		repo.lastCheck = time.Now().Add(-2 * time.Minute)
		repo.mu.Unlock()

		// writes made while down go to primary first
		primary.On("Set", ctx, "session_token", "tok2").Return(nil).Once()
		primary.On("Set", ctx, "a", "1").Return(nil).Once()
		primary.On("Set", ctx, "b", "2").Return(nil).Once()
		primary.On("Remove", ctx, "session_token").Return(nil).Once()

		require.NoError(t, repo.Remove(ctx, "session_token"))
		assert.False(t, repo.isDown.Load())
		_, ok, _ := fallback.Get(ctx, "session_token")
		assert.False(t, ok)
		primary.AssertExpectations(t)
	})

	t.Run("BatchOnPlainPrimary", func(t *testing.T) {
		primary.On("Remove", ctx, "a").Return(nil).Once()
		primary.On("Remove", ctx, "b").Return(nil).Once()

		require.NoError(t, repo.RemoveMany(ctx, "a", "b"))
		primary.AssertExpectations(t)
	})
}

// flakyKV is a memory store that fails every call while down is set.
type flakyKV struct {
	inner *MemoryKVStore
	down  atomic.Bool
}

var errUnavailable = errors.New("database is locked")

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.down.Load() {
		return "", false, errUnavailable
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.down.Load() {
		return errUnavailable
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyKV) Remove(ctx context.Context, key string) error {
	if f.down.Load() {
		return errUnavailable
	}
	return f.inner.Remove(ctx, key)
}

func TestFailoverReplaysWritesOnRecovery(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	setup := func(t *testing.T) (*flakyKV, *FailoverKVStore) {
		t.Helper()
		primary := &flakyKV{inner: NewMemoryKVStore()}
		require.NoError(t, primary.inner.SetMany(ctx, map[string]string{
			"session_token": "old",
			"user_data":     `{"id":1}`,
		}))
		return primary, NewFailoverKVStore(primary, NewMemoryKVStore(), &logger)
	}
	expireCheck := func(repo *FailoverKVStore) {
		repo.mu.Lock()
		repo.lastCheck = time.Now().Add(-2 * recoveryInterval)
		repo.mu.Unlock()
	}

	t.Run("LogoutWhileDownStaysLoggedOut", func(t *testing.T) {
		primary, repo := setup(t)
		primary.down.Store(true)
		require.NoError(t, repo.RemoveMany(ctx, "session_token", "user_data"))
		require.True(t, repo.isDown.Load())

		primary.down.Store(false)
		expireCheck(repo)

		_, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, _ = primary.inner.Get(ctx, "user_data")
		assert.False(t, ok)
		assert.False(t, repo.isDown.Load())
	})

	t.Run("LoginWhileDownSurvives", func(t *testing.T) {
		primary, repo := setup(t)
		require.NoError(t, primary.inner.RemoveMany(ctx, "session_token", "user_data"))
		primary.down.Store(true)
		require.NoError(t, repo.SetMany(ctx, map[string]string{"session_token": "new"}))

		primary.down.Store(false)
		expireCheck(repo)

		got, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "new", got)
		got, _, _ = primary.inner.Get(ctx, "session_token")
		assert.Equal(t, "new", got)
	})

	t.Run("FailedReplayKeepsFallback", func(t *testing.T) {
		primary, repo := setup(t)
		primary.down.Store(true)
		require.NoError(t, repo.Set(ctx, "session_token", "new"))
		expireCheck(repo)

		got, ok, err := repo.Get(ctx, "session_token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "new", got)
		assert.True(t, repo.isDown.Load())

		primary.down.Store(false)
		expireCheck(repo)
		require.NoError(t, repo.Set(ctx, "user_data", `{"id":2}`))
		got, _, _ = primary.inner.Get(ctx, "session_token")
		assert.Equal(t, "new", got)
	})
}
