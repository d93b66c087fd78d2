package domain

import (
	"context"

	"arenda/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// KVStore is the persistence capability behind client state. Get reports
// found=false for a missing key rather than an error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// BatchKVStore writes or removes several keys as one unit.
type BatchKVStore interface {
	KVStore
	SetMany(ctx context.Context, values map[string]string) error
	RemoveMany(ctx context.Context, keys ...string) error
}

type SessionStore interface {
	Save(ctx context.Context, token string, user models.User) error
	Load(ctx context.Context) (*models.Session, bool)
	Clear(ctx context.Context) error
}

type MarketplaceAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error)
	VerifySession(ctx context.Context, token string) (*models.User, error)
	// ListItems never fails: on error it serves the built-in sample and says so.
	ListItems(ctx context.Context, category string) *models.ItemsResult
	CreateListing(ctx context.Context, token string, listing models.Listing) (int64, error)
	CreateBooking(ctx context.Context, token string, req models.BookingRequest) (*models.BookingReceipt, error)
	ListBookings(ctx context.Context, token string) ([]models.Booking, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BookingExporter interface {
	ExportBookings(ctx context.Context, user models.User, bookings []models.Booking) (string, error)
}

type BookingSheetWriter interface {
	ReplaceBookings(ctx context.Context, user models.User, bookings []models.Booking) error
}

type ImageUploader interface {
	Upload(ctx context.Context, fileName string, body []byte) (string, error)
}
