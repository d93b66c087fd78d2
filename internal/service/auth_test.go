package service

import (
	"context"
	"errors"
	"testing"

	"arenda/internal/api"
	"arenda/internal/events"
	"arenda/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Login(t *testing.T) {
	ctx := context.Background()
	creds := models.Credentials{Email: "ivan@example.com", Password: "secret1"}

	t.Run("Success", func(t *testing.T) {
		client := new(mockAPI)
		sessions := newSessions()
		bus := newRecordingBus()
		notifier := &recordingNotifier{}
		c := NewAuthController(client, sessions, bus, notifier, nopLogger())

		client.On("Login", mock.Anything, creds).
			Return(&models.AuthResult{User: testUser, Token: testToken}, nil).Once()

		sess, err := c.Login(ctx, models.Credentials{Email: "  ivan@example.com ", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, testToken, sess.Token)

		stored, ok := c.Current(ctx)
		require.True(t, ok)
		assert.Equal(t, testUser, stored.User)

		require.Len(t, bus.ofType(events.EventUserLoggedIn), 1)
		var p events.AuthEventPayload
		require.NoError(t, bus.ofType(events.EventUserLoggedIn)[0].Decode(&p))
		assert.Equal(t, testUser.ID, p.UserID)

		assert.Equal(t, models.LevelSuccess, notifier.last().Level)
		assert.Equal(t, "Добро пожаловать, Иван Петров!", notifier.last().Message)
		assert.Equal(t, ActionSettled, c.SubmitAction().State())
		client.AssertExpectations(t)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		client := new(mockAPI)
		sessions := newSessions()
		notifier := &recordingNotifier{}
		c := NewAuthController(client, sessions, nil, notifier, nopLogger())

		client.On("Login", mock.Anything, creds).
			Return(nil, &api.RequestError{Op: "login", Status: 401, Kind: api.ErrInvalidCredentials, Message: "Неверный email или пароль"})

		_, err := c.Login(ctx, creds)
		assert.ErrorIs(t, err, api.ErrInvalidCredentials)

		_, ok := c.Current(ctx)
		assert.False(t, ok)
		assert.Equal(t, models.LevelError, notifier.last().Level)
		assert.Equal(t, "Неверный email или пароль", notifier.last().Message)
	})

	t.Run("LocalValidation", func(t *testing.T) {
		client := new(mockAPI)
		c := NewAuthController(client, newSessions(), nil, nil, nopLogger())

		_, err := c.Login(ctx, models.Credentials{Email: " ", Password: "x"})
		assert.ErrorIs(t, err, ErrEmailRequired)
		_, err = c.Login(ctx, models.Credentials{Email: "a@b.c"})
		assert.ErrorIs(t, err, ErrPasswordRequired)

		client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthController_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsToRenter", func(t *testing.T) {
		client := new(mockAPI)
		bus := newRecordingBus()
		c := NewAuthController(client, newSessions(), bus, nil, nopLogger())

		client.On("Register", mock.Anything, mock.MatchedBy(func(r models.Registration) bool {
			return r.UserType == models.UserTypeRenter && r.FullName == "Иван Петров"
		})).Return(&models.AuthResult{User: testUser, Token: testToken}, nil)

		sess, err := c.Register(ctx, models.Registration{
			Email:    "ivan@example.com",
			Password: "secret1",
			FullName: " Иван Петров ",
		})
		require.NoError(t, err)
		assert.Equal(t, testUser.ID, sess.User.ID)
		assert.Len(t, bus.ofType(events.EventUserRegistered), 1)
		client.AssertExpectations(t)
	})

	t.Run("ServerRejects", func(t *testing.T) {
		client := new(mockAPI)
		notifier := &recordingNotifier{}
		c := NewAuthController(client, newSessions(), nil, notifier, nopLogger())

		client.On("Register", mock.Anything, mock.Anything).
			Return(nil, &api.ValidationError{Op: "register", Status: 400, Message: "Пользователь уже существует"})

		_, err := c.Register(ctx, models.Registration{Email: "a@b.c", Password: "secret1", FullName: "A"})
		var verr *api.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "Пользователь уже существует", notifier.last().Message)
	})

	t.Run("LocalValidation", func(t *testing.T) {
		client := new(mockAPI)
		c := NewAuthController(client, newSessions(), nil, nil, nopLogger())

		tests := []struct {
			reg  models.Registration
			want error
		}{
			{models.Registration{Password: "secret1", FullName: "A"}, ErrEmailRequired},
			{models.Registration{Email: "a@b.c", FullName: "A"}, ErrPasswordRequired},
			{models.Registration{Email: "a@b.c", Password: "12345", FullName: "A"}, ErrPasswordTooShort},
			{models.Registration{Email: "a@b.c", Password: "secret1"}, ErrFullNameRequired},
			{models.Registration{Email: "a@b.c", Password: "secret1", FullName: "A", UserType: "admin"}, ErrInvalidUserType},
		}
		for _, tt := range tests {
			_, err := c.Register(ctx, tt.reg)
			assert.ErrorIs(t, err, tt.want)
		}
		client.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestAuthController_Logout(t *testing.T) {
	ctx := context.Background()
	bus := newRecordingBus()
	c := NewAuthController(new(mockAPI), loggedIn(t), bus, nil, nopLogger())

	require.NoError(t, c.Logout(ctx))
	_, ok := c.Current(ctx)
	assert.False(t, ok)

	require.NoError(t, c.Logout(ctx))
	assert.Len(t, bus.ofType(events.EventUserLoggedOut), 1)
}

func TestAuthController_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("NoSession", func(t *testing.T) {
		client := new(mockAPI)
		c := NewAuthController(client, newSessions(), nil, nil, nopLogger())

		_, err := c.Verify(ctx)
		assert.ErrorIs(t, err, api.ErrUnauthorized)
		client.AssertNotCalled(t, "VerifySession", mock.Anything, mock.Anything)
	})

	t.Run("RejectedTokenClearsSession", func(t *testing.T) {
		client := new(mockAPI)
		bus := newRecordingBus()
		c := NewAuthController(client, loggedIn(t), bus, nil, nopLogger())

		client.On("VerifySession", mock.Anything, testToken).
			Return(nil, &api.RequestError{Op: "verify", Status: 401, Kind: api.ErrUnauthorized})

		_, err := c.Verify(ctx)
		assert.ErrorIs(t, err, api.ErrUnauthorized)

		_, ok := c.Current(ctx)
		assert.False(t, ok)
		assert.Len(t, bus.ofType(events.EventSessionExpired), 1)
	})

	t.Run("NetworkKeepsSession", func(t *testing.T) {
		client := new(mockAPI)
		c := NewAuthController(client, loggedIn(t), nil, nil, nopLogger())

		client.On("VerifySession", mock.Anything, testToken).
			Return(nil, &api.RequestError{Op: "verify", Kind: api.ErrNetwork, Err: errors.New("timeout")})

		_, err := c.Verify(ctx)
		assert.ErrorIs(t, err, api.ErrNetwork)

		_, ok := c.Current(ctx)
		assert.True(t, ok)
	})

	t.Run("RefreshesStoredUser", func(t *testing.T) {
		client := new(mockAPI)
		c := NewAuthController(client, loggedIn(t), nil, nil, nopLogger())

		fresh := testUser
		fresh.FullName = "Иван П."
		client.On("VerifySession", mock.Anything, testToken).Return(&fresh, nil)

		sess, err := c.Verify(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Иван П.", sess.User.FullName)

		stored, ok := c.Current(ctx)
		require.True(t, ok)
		assert.Equal(t, "Иван П.", stored.User.FullName)
		assert.Equal(t, testToken, stored.Token)
	})
}
