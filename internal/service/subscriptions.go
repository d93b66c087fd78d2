package service

import (
	"context"
	"fmt"

	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

// SubscribeNotifications turns background events into notifications:
// status transitions found by the tracker and sessions the server dropped.
func SubscribeNotifications(bus *events.EventBus, notifier domain.Notifier, logger *zerolog.Logger) {
	if bus == nil || notifier == nil {
		return
	}

	bus.Subscribe(events.EventBookingStatusChanged, func(event *events.Event) error {
		var p events.BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", event.Type, err)
		}
		return notifier.Notify(context.Background(), statusNotification(p))
	})

	bus.Subscribe(events.EventSessionExpired, func(event *events.Event) error {
		return notifier.Notify(context.Background(), models.Notification{
			Level:   models.LevelError,
			Title:   "Сессия истекла",
			Message: "Войдите в аккаунт заново",
		})
	})

	if logger != nil {
		bus.SubscribeAll(func(event *events.Event) error {
			logger.Debug().Str("event", event.Type).RawJSON("payload", event.Payload).Msg("event published")
			return nil
		})
	}
}

func statusNotification(p events.BookingEventPayload) models.Notification {
	prev := models.ParseBookingStatus(p.PreviousStatus)
	cur := models.ParseBookingStatus(p.Status)

	level := models.LevelInfo
	switch cur {
	case models.StatusConfirmed, models.StatusActive, models.StatusCompleted:
		level = models.LevelSuccess
	case models.StatusCancelled:
		level = models.LevelError
	}

	return models.Notification{
		Level:   level,
		Title:   fmt.Sprintf("Бронирование #%d", p.BookingID),
		Message: fmt.Sprintf("%s: %s → %s", p.Title, prev.Label(), cur.Label()),
	}
}
