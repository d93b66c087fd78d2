package service

import (
	"context"
	"errors"

	"arenda/internal/api"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

// base holds what every page controller needs: the session, the event bus
// and the notifier that shows results to the user.
type base struct {
	sessions domain.SessionStore
	bus      domain.EventPublisher
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func newBase(sessions domain.SessionStore, bus domain.EventPublisher, notifier domain.Notifier, logger *zerolog.Logger) base {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return base{sessions: sessions, bus: bus, notifier: notifier, logger: logger}
}

// requireSession returns the stored session or api.ErrUnauthorized.
func (b *base) requireSession(ctx context.Context) (*models.Session, error) {
	if b.sessions == nil {
		return nil, api.ErrUnauthorized
	}
	sess, ok := b.sessions.Load(ctx)
	if !ok {
		return nil, api.ErrUnauthorized
	}
	return sess, nil
}

func (b *base) publish(eventType string, payload interface{}) {
	if b.bus == nil {
		return
	}
	if err := b.bus.PublishJSON(eventType, payload); err != nil {
		b.logger.Warn().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}

func (b *base) notify(ctx context.Context, level models.NotificationLevel, title, message string) {
	if b.notifier == nil {
		return
	}
	n := models.Notification{Level: level, Title: title, Message: message}
	if err := b.notifier.Notify(ctx, n); err != nil {
		b.logger.Warn().Err(err).Str("title", title).Msg("failed to deliver notification")
	}
}

// fail shows err to the user and hands it back to the caller. A rejected
// token also drops the stored session.
func (b *base) fail(ctx context.Context, title string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrActionPending) {
		return err
	}
	if errors.Is(err, api.ErrUnauthorized) {
		b.expire(ctx)
	}
	b.logger.Debug().Err(err).Str("action", title).Msg("action failed")
	b.notify(ctx, models.LevelError, title, UserMessage(err))
	return err
}

// expire clears a session the server no longer accepts.
func (b *base) expire(ctx context.Context) {
	if b.sessions == nil {
		return
	}
	sess, ok := b.sessions.Load(ctx)
	if !ok {
		return
	}
	if err := b.sessions.Clear(ctx); err != nil {
		b.logger.Error().Err(err).Msg("failed to clear expired session")
		return
	}
	b.logger.Info().Int64("user_id", sess.User.ID).Msg("session expired")
	b.publish(events.EventSessionExpired, authPayload(sess.User))
}

func authPayload(u models.User) events.AuthEventPayload {
	return events.AuthEventPayload{UserID: u.ID, Email: u.Email, FullName: u.FullName}
}
