package models

import "strings"

// BookingStatus is the closed set of states the client displays.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

type statusView struct {
	label   string
	variant string
}

var statusViews = map[BookingStatus]statusView{
	StatusPending:   {label: "Ожидает", variant: "secondary"},
	StatusConfirmed: {label: "Подтверждено", variant: "default"},
	StatusActive:    {label: "Активно", variant: "default"},
	StatusCompleted: {label: "Завершено", variant: "outline"},
	StatusCancelled: {label: "Отменено", variant: "destructive"},
}

// ParseBookingStatus maps a server status string onto the display set.
// Anything unrecognised is shown as pending so new server-side statuses
// do not break the client.
func ParseBookingStatus(s string) BookingStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "canceled" {
		return StatusCancelled
	}
	if _, ok := statusViews[BookingStatus(s)]; ok {
		return BookingStatus(s)
	}
	return StatusPending
}

func (s BookingStatus) Label() string {
	return statusViews[ParseBookingStatus(string(s))].label
}

// Variant is the badge style used when rendering the status.
func (s BookingStatus) Variant() string {
	return statusViews[ParseBookingStatus(string(s))].variant
}

type Booking struct {
	ID         int64  `json:"id"`
	ItemID     int64  `json:"item_id"`
	UserID     int64  `json:"user_id,omitempty"`
	Title      string `json:"title"`
	ImageURL   string `json:"image_url"`
	Location   string `json:"location"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`
	TotalDays  int    `json:"total_days"`
	TotalPrice Money  `json:"total_price"`
	Status     string `json:"status"`
	OwnerName  string `json:"owner_name"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (b Booking) DisplayStatus() BookingStatus {
	return ParseBookingStatus(b.Status)
}

type BookingRequest struct {
	ItemID    int64 `json:"item_id"`
	StartDate Date  `json:"start_date"`
	EndDate   Date  `json:"end_date"`
}

type BookingReceipt struct {
	BookingID  int64 `json:"booking_id"`
	TotalPrice Money `json:"total_price"`
}
