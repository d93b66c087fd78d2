package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"arenda/internal/api"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

const (
	titleLogin    = "Ошибка входа"
	titleRegister = "Ошибка регистрации"
	titleSession  = "Сессия"
)

type AuthController struct {
	base
	api    domain.MarketplaceAPI
	submit Action
}

func NewAuthController(client domain.MarketplaceAPI, sessions domain.SessionStore, bus domain.EventPublisher, notifier domain.Notifier, logger *zerolog.Logger) *AuthController {
	return &AuthController{
		base: newBase(sessions, bus, notifier, logger),
		api:  client,
	}
}

// SubmitAction exposes the state of the login/register form button.
func (c *AuthController) SubmitAction() *Action {
	return &c.submit
}

func (c *AuthController) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return nil, c.fail(ctx, titleLogin, ErrEmailRequired)
	}
	if creds.Password == "" {
		return nil, c.fail(ctx, titleLogin, ErrPasswordRequired)
	}

	var sess *models.Session
	err := c.submit.Run(ctx, func(ctx context.Context) error {
		res, err := c.api.Login(ctx, creds)
		if err != nil {
			return err
		}
		sess, err = c.start(ctx, res)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, titleLogin, err)
	}

	c.logger.Info().Int64("user_id", sess.User.ID).Msg("user logged in")
	c.publish(events.EventUserLoggedIn, authPayload(sess.User))
	c.notify(ctx, models.LevelSuccess, "Успешный вход!", fmt.Sprintf("Добро пожаловать, %s!", sess.User.FullName))
	return sess, nil
}

func (c *AuthController) Register(ctx context.Context, reg models.Registration) (*models.Session, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, c.fail(ctx, titleRegister, err)
	}

	var sess *models.Session
	err := c.submit.Run(ctx, func(ctx context.Context) error {
		res, err := c.api.Register(ctx, reg)
		if err != nil {
			return err
		}
		sess, err = c.start(ctx, res)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, titleRegister, err)
	}

	c.logger.Info().Int64("user_id", sess.User.ID).Msg("user registered")
	c.publish(events.EventUserRegistered, authPayload(sess.User))
	c.notify(ctx, models.LevelSuccess, "Регистрация успешна!", fmt.Sprintf("Добро пожаловать, %s!", sess.User.FullName))
	return sess, nil
}

func (c *AuthController) start(ctx context.Context, res *models.AuthResult) (*models.Session, error) {
	if err := c.sessions.Save(ctx, res.Token, res.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &models.Session{Token: res.Token, User: res.User}, nil
}

// Logout forgets the stored session. Logging out twice is not an error.
func (c *AuthController) Logout(ctx context.Context) error {
	sess, had := c.sessions.Load(ctx)
	if err := c.sessions.Clear(ctx); err != nil {
		return c.fail(ctx, titleSession, fmt.Errorf("clear session: %w", err))
	}
	if had {
		c.logger.Info().Int64("user_id", sess.User.ID).Msg("user logged out")
		c.publish(events.EventUserLoggedOut, authPayload(sess.User))
	}
	c.notify(ctx, models.LevelInfo, titleSession, "Вы вышли из аккаунта")
	return nil
}

// Current is the locally stored session, without asking the server.
func (c *AuthController) Current(ctx context.Context) (*models.Session, bool) {
	return c.sessions.Load(ctx)
}

// Verify asks the server whether the stored token is still valid. A
// rejected token clears the session; a network failure keeps it.
func (c *AuthController) Verify(ctx context.Context) (*models.Session, error) {
	sess, err := c.requireSession(ctx)
	if err != nil {
		return nil, c.fail(ctx, titleSession, err)
	}

	user, err := c.api.VerifySession(ctx, sess.Token)
	if err != nil {
		return nil, c.fail(ctx, titleSession, err)
	}

	if !reflect.DeepEqual(*user, sess.User) {
		if err := c.sessions.Save(ctx, sess.Token, *user); err != nil {
			c.logger.Warn().Err(err).Msg("failed to refresh stored user")
		}
		sess.User = *user
	}
	return sess, nil
}

func validateRegistration(reg *models.Registration) error {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Phone = strings.TrimSpace(reg.Phone)

	switch {
	case reg.Email == "":
		return ErrEmailRequired
	case reg.Password == "":
		return ErrPasswordRequired
	case utf8.RuneCountInString(reg.Password) < models.MinPasswordLength:
		return fmt.Errorf("%w: at least %d characters", ErrPasswordTooShort, models.MinPasswordLength)
	case reg.FullName == "":
		return ErrFullNameRequired
	}

	if reg.UserType == "" {
		reg.UserType = models.UserTypeRenter
	}
	if !reg.UserType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidUserType, reg.UserType)
	}
	return nil
}

// IsSessionError reports whether err means the user has to log in again.
func IsSessionError(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}
