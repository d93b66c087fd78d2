// Package notify delivers user-visible notifications: to the terminal and,
// when configured, to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"arenda/internal/domain"
	"arenda/internal/metrics"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

func icon(level models.NotificationLevel) string {
	switch level {
	case models.LevelSuccess:
		return "✅"
	case models.LevelError:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Format renders a notification as a single line.
func Format(n models.Notification) string {
	if n.Message == "" {
		return fmt.Sprintf("%s %s", icon(n.Level), n.Title)
	}
	if n.Title == "" {
		return fmt.Sprintf("%s %s", icon(n.Level), n.Message)
	}
	return fmt.Sprintf("%s %s: %s", icon(n.Level), n.Title, n.Message)
}

// Console prints notifications to a writer, normally the terminal.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zerolog.Logger
}

func NewConsole(out io.Writer, logger *zerolog.Logger) *Console {
	return &Console{out: out, logger: logger}
}

func (c *Console) Notify(ctx context.Context, n models.Notification) error {
	c.mu.Lock()
	_, err := fmt.Fprintln(c.out, Format(n))
	c.mu.Unlock()

	metrics.IncNotification("console", string(n.Level))
	c.logger.Debug().Str("level", string(n.Level)).Str("title", n.Title).Msg("notification shown")
	return err
}

// Multi fans a notification out to every notifier, joining their failures.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, models.Notification) error { return nil }
