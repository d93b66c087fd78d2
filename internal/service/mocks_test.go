package service

import (
	"context"
	"sync"
	"testing"

	"arenda/internal/events"
	"arenda/internal/models"
	"arenda/internal/repository"
	"arenda/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *mockAPI) VerifySession(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAPI) ListItems(ctx context.Context, category string) *models.ItemsResult {
	return m.Called(ctx, category).Get(0).(*models.ItemsResult)
}

func (m *mockAPI) CreateListing(ctx context.Context, token string, listing models.Listing) (int64, error) {
	args := m.Called(ctx, token, listing)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAPI) CreateBooking(ctx context.Context, token string, req models.BookingRequest) (*models.BookingReceipt, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingReceipt), args.Error(1)
}

func (m *mockAPI) ListBookings(ctx context.Context, token string) ([]models.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportBookings(ctx context.Context, user models.User, bookings []models.Booking) (string, error) {
	args := m.Called(ctx, user, bookings)
	return args.String(0), args.Error(1)
}

type mockSheets struct {
	mock.Mock
}

func (m *mockSheets) ReplaceBookings(ctx context.Context, user models.User, bookings []models.Booking) error {
	return m.Called(ctx, user, bookings).Error(0)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, fileName string, body []byte) (string, error) {
	args := m.Called(ctx, fileName, body)
	return args.String(0), args.Error(1)
}

// recordingNotifier keeps every notification it is given.
type recordingNotifier struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recordingNotifier) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.got...)
}

func (r *recordingNotifier) last() models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return models.Notification{}
	}
	return r.got[len(r.got)-1]
}

// recordingBus is an event bus that remembers what was published.
type recordingBus struct {
	*events.EventBus
	mu   sync.Mutex
	seen []*events.Event
}

func newRecordingBus() *recordingBus {
	b := &recordingBus{EventBus: events.NewEventBus()}
	b.SubscribeAll(func(event *events.Event) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.seen = append(b.seen, event)
		return nil
	})
	return b
}

func (b *recordingBus) ofType(eventType string) []*events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*events.Event
	for _, e := range b.seen {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var testUser = models.User{ID: 1, Email: "ivan@example.com", FullName: "Иван Петров", UserType: models.UserTypeRenter}

const testToken = "tok-123"

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newSessions() *session.Store {
	return session.NewStore(repository.NewMemoryKVStore(), nopLogger())
}

func loggedIn(t *testing.T) *session.Store {
	t.Helper()
	store := newSessions()
	require.NoError(t, store.Save(context.Background(), testToken, testUser))
	return store
}
