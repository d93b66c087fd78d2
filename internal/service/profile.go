package service

import (
	"context"
	"fmt"

	"arenda/internal/domain"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

const titleProfile = "Профиль"

// BookingView is a booking with its status resolved for display.
type BookingView struct {
	models.Booking
	State   models.BookingStatus
	Label   string
	Variant string
}

type ProfilePage struct {
	User     models.User
	Bookings []BookingView

	// TotalSpent sums every booking that was not cancelled.
	TotalSpent int64
}

type ProfileController struct {
	base
	api      domain.MarketplaceAPI
	exporter domain.BookingExporter
	sheets   domain.BookingSheetWriter
	export   Action
}

// NewProfileController builds the profile page controller. exporter and
// sheets are optional.
func NewProfileController(client domain.MarketplaceAPI, sessions domain.SessionStore, exporter domain.BookingExporter, sheets domain.BookingSheetWriter, bus domain.EventPublisher, notifier domain.Notifier, logger *zerolog.Logger) *ProfileController {
	return &ProfileController{
		base:     newBase(sessions, bus, notifier, logger),
		api:      client,
		exporter: exporter,
		sheets:   sheets,
	}
}

func (c *ProfileController) ExportAction() *Action {
	return &c.export
}

func (c *ProfileController) Load(ctx context.Context) (*ProfilePage, error) {
	sess, bookings, err := c.bookings(ctx)
	if err != nil {
		return nil, c.fail(ctx, titleProfile, err)
	}

	page := &ProfilePage{User: sess.User, Bookings: make([]BookingView, 0, len(bookings))}
	for _, b := range bookings {
		status := b.DisplayStatus()
		page.Bookings = append(page.Bookings, BookingView{
			Booking: b,
			State:   status,
			Label:   status.Label(),
			Variant: status.Variant(),
		})
		if status != models.StatusCancelled {
			page.TotalSpent += int64(b.TotalPrice)
		}
	}
	return page, nil
}

// Export writes the user's bookings to a spreadsheet file and returns its path.
func (c *ProfileController) Export(ctx context.Context) (string, error) {
	if c.exporter == nil {
		return "", c.fail(ctx, titleProfile, ErrExportUnavailable)
	}

	var path string
	err := c.export.Run(ctx, func(ctx context.Context) error {
		sess, bookings, err := c.bookings(ctx)
		if err != nil {
			return err
		}
		path, err = c.exporter.ExportBookings(ctx, sess.User, bookings)
		if err != nil {
			return fmt.Errorf("export bookings: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", c.fail(ctx, titleProfile, err)
	}

	c.logger.Info().Str("path", path).Msg("bookings exported")
	c.notify(ctx, models.LevelSuccess, "Экспорт готов", path)
	return path, nil
}

// Sync replaces the bookings sheet with the current list and reports how
// many rows were written.
func (c *ProfileController) Sync(ctx context.Context) (int, error) {
	if c.sheets == nil {
		return 0, c.fail(ctx, titleProfile, ErrSyncUnavailable)
	}

	var n int
	err := c.export.Run(ctx, func(ctx context.Context) error {
		sess, bookings, err := c.bookings(ctx)
		if err != nil {
			return err
		}
		if err := c.sheets.ReplaceBookings(ctx, sess.User, bookings); err != nil {
			return fmt.Errorf("sync bookings: %w", err)
		}
		n = len(bookings)
		return nil
	})
	if err != nil {
		return 0, c.fail(ctx, titleProfile, err)
	}

	c.logger.Info().Int("rows", n).Msg("bookings synced to google sheets")
	c.notify(ctx, models.LevelSuccess, "Google Sheets", fmt.Sprintf("Выгружено бронирований: %d", n))
	return n, nil
}

func (c *ProfileController) bookings(ctx context.Context) (*models.Session, []models.Booking, error) {
	sess, err := c.requireSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := c.api.ListBookings(ctx, sess.Token)
	if err != nil {
		return nil, nil, err
	}
	return sess, bookings, nil
}
