package service

import (
	"context"
	"fmt"

	"arenda/internal/catalog"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/models"
	"arenda/internal/pricing"

	"github.com/rs/zerolog"
)

const titleBooking = "Бронирование"

type ItemDetailController struct {
	base
	api         domain.MarketplaceAPI
	strictRange bool
	today       func() models.Date
	book        Action
}

// NewItemDetailController builds the item page controller. With strictRange
// past start dates and reversed ranges are refused before pricing.
func NewItemDetailController(client domain.MarketplaceAPI, sessions domain.SessionStore, bus domain.EventPublisher, notifier domain.Notifier, strictRange bool, logger *zerolog.Logger) *ItemDetailController {
	return &ItemDetailController{
		base:        newBase(sessions, bus, notifier, logger),
		api:         client,
		strictRange: strictRange,
		today:       models.Today,
	}
}

// BookAction exposes the state of the booking button.
func (c *ItemDetailController) BookAction() *Action {
	return &c.book
}

// Open finds an item by id in the current catalog.
func (c *ItemDetailController) Open(ctx context.Context, id int64) (models.Item, error) {
	res := c.api.ListItems(ctx, models.CategoryAll)
	item, ok := catalog.Find(res.Items, id)
	if !ok {
		return models.Item{}, c.fail(ctx, "Объявление", fmt.Errorf("%w: id %d", ErrItemNotFound, id))
	}
	return item, nil
}

// Quote prices the selected range. Missing dates give a zero quote with
// pricing.ErrMissingDates.
func (c *ItemDetailController) Quote(item models.Item, from, to *models.Date) (pricing.Quote, error) {
	q, err := pricing.NewQuote(from, to, int64(item.Price), item.Period)
	if err != nil {
		return q, err
	}
	if c.strictRange {
		if err := pricing.ValidateRange(*from, *to, c.today()); err != nil {
			return q, err
		}
	}
	return q, nil
}

// Book submits a booking for the selected range. Without a session or
// without both dates nothing is sent.
func (c *ItemDetailController) Book(ctx context.Context, item models.Item, from, to *models.Date) (*models.BookingReceipt, error) {
	sess, err := c.requireSession(ctx)
	if err != nil {
		return nil, c.fail(ctx, titleBooking, err)
	}

	q, err := c.Quote(item, from, to)
	if err != nil {
		return nil, c.fail(ctx, titleBooking, err)
	}
	if q.Reversed {
		c.logger.Warn().
			Int64("item_id", item.ID).
			Str("start", q.Start.String()).
			Str("end", q.End.String()).
			Msg("booking range is reversed")
	}

	var receipt *models.BookingReceipt
	err = c.book.Run(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = c.api.CreateBooking(ctx, sess.Token, models.BookingRequest{
			ItemID:    item.ID,
			StartDate: q.Start,
			EndDate:   q.End,
		})
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, titleBooking, err)
	}

	c.logger.Info().
		Int64("booking_id", receipt.BookingID).
		Int64("item_id", item.ID).
		Int64("total_price", int64(receipt.TotalPrice)).
		Msg("booking created")

	c.publish(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:  receipt.BookingID,
		ItemID:     item.ID,
		Title:      item.Title,
		StartDate:  q.Start.String(),
		EndDate:    q.End.String(),
		TotalDays:  q.Days,
		TotalPrice: int64(receipt.TotalPrice),
		Status:     string(models.StatusPending),
	})
	c.notify(ctx, models.LevelSuccess, "Бронирование успешно создано!",
		fmt.Sprintf("%s: %d дн., итого %d ₽", item.Title, q.Days, int64(receipt.TotalPrice)))
	return receipt, nil
}
