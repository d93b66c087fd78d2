package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"arenda/internal/api"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/metrics"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

// StatusChange is one booking whose display status moved since the last
// reconcile.
type StatusChange struct {
	Booking  models.Booking
	Previous models.BookingStatus
	Current  models.BookingStatus
}

type bookingSnapshot struct {
	UserID   int64                          `json:"user_id"`
	Statuses map[int64]models.BookingStatus `json:"statuses"`
}

// BookingTracker compares the user's bookings with the snapshot kept in the
// client store and reports status transitions.
type BookingTracker struct {
	base
	api  domain.MarketplaceAPI
	kv   domain.KVStore
	poll Action
}

func NewBookingTracker(client domain.MarketplaceAPI, sessions domain.SessionStore, kv domain.KVStore, bus domain.EventPublisher, logger *zerolog.Logger) *BookingTracker {
	return &BookingTracker{
		base: newBase(sessions, bus, nil, logger),
		api:  client,
		kv:   kv,
	}
}

// Reconcile fetches the bookings once and publishes a status-changed event
// per transition. The first run for a user only records the snapshot.
func (t *BookingTracker) Reconcile(ctx context.Context) ([]StatusChange, error) {
	var changes []StatusChange
	err := t.poll.Run(ctx, func(ctx context.Context) error {
		sess, err := t.requireSession(ctx)
		if err != nil {
			return err
		}
		bookings, err := t.api.ListBookings(ctx, sess.Token)
		if err != nil {
			return err
		}

		next := bookingSnapshot{UserID: sess.User.ID, Statuses: make(map[int64]models.BookingStatus, len(bookings))}
		for _, b := range bookings {
			next.Statuses[b.ID] = b.DisplayStatus()
		}

		if prev, ok := t.loadSnapshot(ctx, sess.User.ID); ok {
			changes = diffStatuses(prev, bookings)
		}
		return t.saveSnapshot(ctx, next)
	})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			t.expire(ctx)
		}
		return nil, err
	}

	for _, ch := range changes {
		t.logger.Info().
			Int64("booking_id", ch.Booking.ID).
			Str("from", string(ch.Previous)).
			Str("to", string(ch.Current)).
			Msg("booking status changed")
		metrics.IncStatusChange(string(ch.Current))
		t.publish(events.EventBookingStatusChanged, statusPayload(ch))
	}
	return changes, nil
}

func diffStatuses(prev bookingSnapshot, bookings []models.Booking) []StatusChange {
	var changes []StatusChange
	for _, b := range bookings {
		was, known := prev.Statuses[b.ID]
		if !known {
			continue
		}
		if now := b.DisplayStatus(); now != was {
			changes = append(changes, StatusChange{Booking: b, Previous: was, Current: now})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Booking.ID < changes[j].Booking.ID
	})
	return changes
}

// loadSnapshot reports false when there is nothing usable to compare with:
// no snapshot yet, an unreadable one, or one that belongs to another user.
func (t *BookingTracker) loadSnapshot(ctx context.Context, userID int64) (bookingSnapshot, bool) {
	raw, found, err := t.kv.Get(ctx, models.BookingSnapshotKey)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to read booking snapshot")
		return bookingSnapshot{}, false
	}
	if !found || raw == "" {
		return bookingSnapshot{}, false
	}

	var snap bookingSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.logger.Warn().Err(err).Msg("discarding corrupt booking snapshot")
		return bookingSnapshot{}, false
	}
	if snap.UserID != userID {
		return bookingSnapshot{}, false
	}
	return snap, true
}

func (t *BookingTracker) saveSnapshot(ctx context.Context, snap bookingSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := t.kv.Set(ctx, models.BookingSnapshotKey, string(data)); err != nil {
		return fmt.Errorf("save booking snapshot: %w", err)
	}
	return nil
}

func statusPayload(ch StatusChange) events.BookingEventPayload {
	b := ch.Booking
	return events.BookingEventPayload{
		BookingID:      b.ID,
		ItemID:         b.ItemID,
		Title:          b.Title,
		StartDate:      b.StartDate.String(),
		EndDate:        b.EndDate.String(),
		TotalDays:      b.TotalDays,
		TotalPrice:     int64(b.TotalPrice),
		Status:         string(ch.Current),
		PreviousStatus: string(ch.Previous),
	}
}
