// Package pricing turns a selected date range and a per-period price into a
// rental duration and total cost.
package pricing

import (
	"errors"

	"arenda/internal/models"
)

var (
	ErrMissingDates  = errors.New("both start and end dates must be selected")
	ErrInvalidRange  = errors.New("end date is before start date")
	ErrPastDate      = errors.New("start date is in the past")
	ErrNegativePrice = errors.New("price must not be negative")
)

// Duration counts days inclusively: a single-day selection is one day.
// Reversed ranges are measured by absolute difference, so
// Duration(a, b) == Duration(b, a).
func Duration(start, end models.Date) int {
	days := start.DaysUntil(end)
	if days < 0 {
		days = -days
	}
	return days + 1
}

// Total is Duration multiplied by the per-period price.
func Total(start, end models.Date, price int64) int64 {
	return int64(Duration(start, end)) * price
}

// Quote is the price breakdown shown next to the booking button.
type Quote struct {
	Start          models.Date
	End            models.Date
	Days           int
	PricePerPeriod int64
	Period         models.Period
	Total          int64
	// Reversed is set when end precedes start. The range is still priced
	// by absolute difference.
	Reversed bool
}

// NewQuote prices a selection. Until both dates are chosen it returns a
// zero-duration quote together with ErrMissingDates, which must block
// submission.
func NewQuote(start, end *models.Date, price int64, period models.Period) (Quote, error) {
	q := Quote{PricePerPeriod: price, Period: period}
	if price < 0 {
		return q, ErrNegativePrice
	}
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return q, ErrMissingDates
	}

	q.Start = *start
	q.End = *end
	q.Days = Duration(*start, *end)
	q.Total = int64(q.Days) * price
	q.Reversed = end.Before(*start)
	return q, nil
}

// Ready reports whether the quote can back a booking request.
func (q Quote) Ready() bool {
	return q.Days > 0
}

// ValidateRange is the stricter presentation-layer check: no past start
// dates and no reversed ranges.
func ValidateRange(start, end, today models.Date) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingDates
	}
	if start.Before(today) {
		return ErrPastDate
	}
	if end.Before(start) {
		return ErrInvalidRange
	}
	return nil
}
