package api

import (
	"bytes"
	"context"
	"encoding/json"

	"arenda/internal/models"
	"arenda/internal/pricing"
)

type bookingList []models.Booking

func (l *bookingList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrap struct {
			Bookings []models.Booking `json:"bookings"`
		}
		if err := json.Unmarshal(data, &wrap); err != nil {
			return err
		}
		*l = wrap.Bookings
		return nil
	}
	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return err
	}
	*l = bookings
	return nil
}

// CreateBooking refuses locally, without touching the network, when the
// token is empty or either date is missing.
func (c *Client) CreateBooking(ctx context.Context, token string, req models.BookingRequest) (*models.BookingReceipt, error) {
	if token == "" {
		return nil, &RequestError{Op: opCreateBooking, Kind: ErrUnauthorized}
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, pricing.ErrMissingDates
	}

	var receipt models.BookingReceipt
	if err := c.doPost(ctx, opCreateBooking, c.bookingsURL, token, req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListBookings returns the caller's bookings in server order (newest first).
func (c *Client) ListBookings(ctx context.Context, token string) ([]models.Booking, error) {
	if token == "" {
		return nil, &RequestError{Op: opListBookings, Kind: ErrUnauthorized}
	}

	var bookings bookingList
	if err := c.doGet(ctx, opListBookings, c.bookingsURL, token, &bookings); err != nil {
		return nil, err
	}
	if bookings == nil {
		return []models.Booking{}, nil
	}
	return bookings, nil
}
