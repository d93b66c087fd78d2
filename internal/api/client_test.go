package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"arenda/internal/config"
	"arenda/internal/models"
	"arenda/internal/pricing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := zerolog.Nop()
	cfg := config.APIConfig{
		AuthURL:        ts.URL + "/auth",
		ItemsURL:       ts.URL + "/items",
		BookingsURL:    ts.URL + "/bookings",
		TimeoutSeconds: 2,
	}
	return NewClient(cfg, &logger), ts
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			assert.Empty(t, r.Header.Get("Authorization"))

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "login", body["action"])
			assert.Equal(t, "anna@example.com", body["email"])

			writeJSON(w, http.StatusOK, map[string]any{
				"success":       true,
				"session_token": "tok-1",
				"user":          map[string]any{"id": 7, "email": "anna@example.com", "full_name": "Анна К.", "user_type": "owner"},
			})
		})

		res, err := client.Login(ctx, models.Credentials{Email: "anna@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", res.Token)
		assert.Equal(t, int64(7), res.User.ID)
		assert.Equal(t, models.UserTypeOwner, res.User.UserType)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		})

		_, err := client.Login(ctx, models.Credentials{Email: "a@b.c", Password: "wrong"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Invalid email or password", ServerMessage(err))
	})

	t.Run("MissingFieldsAreCredentials", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
		})

		_, err := client.Login(ctx, models.Credentials{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("SuccessFalse", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "nope"})
		})

		_, err := client.Login(ctx, models.Credentials{Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("ServerError", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db down"})
		})

		_, err := client.Login(ctx, models.Credentials{Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		ts.Close()

		_, err := client.Login(ctx, models.Credentials{Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>")
		})

		_, err := client.Login(ctx, models.Credentials{Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "register", body["action"])
			assert.Equal(t, "renter", body["user_type"])
			assert.Equal(t, "+7 999", body["phone"])

			writeJSON(w, http.StatusOK, map[string]any{
				"success":       true,
				"session_token": "tok-2",
				"user":          map[string]any{"id": 9, "email": body["email"], "full_name": body["full_name"], "user_type": "renter"},
			})
		})

		res, err := client.Register(ctx, models.Registration{Email: "new@example.com", Password: "secret1", FullName: "Новый", Phone: "+7 999"})
		require.NoError(t, err)
		assert.Equal(t, "tok-2", res.Token)
		assert.Equal(t, "Новый", res.User.FullName)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User with this email already exists"})
		})

		_, err := client.Register(ctx, models.Registration{Email: "dup@example.com", Password: "secret1", FullName: "X"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "User with this email already exists", verr.Message)
		assert.Equal(t, http.StatusBadRequest, verr.Status)
	})

	t.Run("SuccessWithoutSession", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})

		_, err := client.Register(ctx, models.Registration{Email: "x@example.com", Password: "secret1", FullName: "X"})
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestVerifySession(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("X-Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"user":    map[string]any{"id": 3, "email": "a@b.c", "full_name": "A", "user_type": "both", "rating": "4.50"},
			})
		})

		user, err := client.VerifySession(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, user.Rating)
		assert.InDelta(t, 4.5, float64(*user.Rating), 1e-9)
	})

	t.Run("Expired", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired session"})
		})

		_, err := client.VerifySession(ctx, "old")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("EmptyToken", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

		_, err := client.VerifySession(ctx, "")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, calls.Load())
	})
}

func TestListItems(t *testing.T) {
	ctx := context.Background()

	t.Run("Remote", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tools", r.URL.Query().Get("category"))
			_, _ = io.WriteString(w, `[{"id":11,"title":"Перфоратор","category_id":"tools","price":"900.00","period":"день","rating":"4.70","condition":"Хорошее","features":["SDS+"]}]`)
		})

		res := client.ListItems(ctx, "tools")
		require.NotNil(t, res)
		assert.Equal(t, models.ItemsSourceRemote, res.Source)
		assert.False(t, res.Degraded())
		require.Len(t, res.Items, 1)
		assert.Equal(t, models.Money(900), res.Items[0].Price)
		assert.Equal(t, models.PeriodDay, res.Items[0].Period)
		assert.Equal(t, models.ConditionGood, res.Items[0].Condition)
	})

	t.Run("AllHasNoQuery", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)
			_, _ = io.WriteString(w, `{"items":[]}`)
		})

		res := client.ListItems(ctx, "")
		assert.Equal(t, models.ItemsSourceRemote, res.Source)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
		assert.NoError(t, res.Cause)
	})

	t.Run("FailureServesSample", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		res := client.ListItems(ctx, models.CategoryAll)
		require.NotNil(t, res)
		assert.True(t, res.Degraded())
		assert.ErrorIs(t, res.Cause, ErrNetwork)
		require.Len(t, res.Items, 6)
		assert.Equal(t, "Электродрель Bosch", res.Items[0].Title)
	})

	t.Run("FailureFiltersSample", func(t *testing.T) {
		client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		ts.Close()

		res := client.ListItems(ctx, "electronics")
		assert.True(t, res.Degraded())
		assert.Len(t, res.Items, 2)
	})

	t.Run("CustomFallback", func(t *testing.T) {
		client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		ts.Close()
		client.UseFallback([]models.Item{{ID: 1, Title: "Лодка", CategoryID: "sports"}})

		res := client.ListItems(ctx, models.CategoryAll)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Лодка", res.Items[0].Title)
	})
}

func TestListItemsRedisCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusOK, map[string]int64{"item_id": 42})
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"title":"Дрель","category_id":"tools","price":500,"period":"day"}]`)
	})
	client.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	first := client.ListItems(ctx, models.CategoryAll)
	assert.Equal(t, models.ItemsSourceRemote, first.Source)

	second := client.ListItems(ctx, models.CategoryAll)
	assert.Equal(t, models.ItemsSourceCache, second.Source)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Дрель", second.Items[0].Title)
	assert.Equal(t, int32(1), calls.Load())

	t.Run("CreateListingDropsCache", func(t *testing.T) {
		_, err := client.CreateListing(ctx, "tok", models.Listing{Title: "Пила", CategoryID: "tools", Price: 300})
		require.NoError(t, err)
		assert.False(t, s.Exists(itemsCachePrefix+models.CategoryAll))
	})

	t.Run("Expiry", func(t *testing.T) {
		client.ListItems(ctx, "sports")
		s.FastForward(2 * time.Minute)
		assert.False(t, s.Exists(itemsCachePrefix+"sports"))
	})
}

func TestCreateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "Bearer tok", r.Header.Get("X-Authorization"))

			var body models.Listing
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"Мощность 800W", "Реверс"}, body.Features)
			assert.Equal(t, int64(500), body.Price)

			writeJSON(w, http.StatusOK, map[string]int64{"item_id": 101})
		})

		id, err := client.CreateListing(ctx, "tok", models.Listing{
			Title: "Дрель", CategoryID: "tools", Price: 500, Period: models.PeriodDay,
			Features: []string{"Мощность 800W", "Реверс"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(101), id)
	})

	t.Run("NoToken", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

		_, err := client.CreateListing(ctx, "", models.Listing{Title: "x"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, calls.Load())
	})

	t.Run("ExpiredSession", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Сессия истекла"})
		})

		_, err := client.CreateListing(ctx, "tok", models.Listing{Title: "x"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Сессия истекла", ServerMessage(err))
	})

	t.Run("Rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "price must be positive"})
		})

		_, err := client.CreateListing(ctx, "tok", models.Listing{Title: "x"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "price must be positive", verr.Error())
	})
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	req := models.BookingRequest{
		ItemID:    2,
		StartDate: models.NewDate(2026, time.February, 15),
		EndDate:   models.NewDate(2026, time.February, 17),
	}

	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bookings", r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("X-Authorization"))

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "2026-02-15", body["start_date"])
			assert.Equal(t, "2026-02-17", body["end_date"])

			writeJSON(w, http.StatusOK, map[string]any{"booking_id": 55, "total_price": "4500.00"})
		})

		receipt, err := client.CreateBooking(ctx, "tok", req)
		require.NoError(t, err)
		assert.Equal(t, int64(55), receipt.BookingID)
		assert.Equal(t, models.Money(4500), receipt.TotalPrice)
	})

	t.Run("NoTokenNoNetwork", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

		_, err := client.CreateBooking(ctx, "", req)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, calls.Load())
	})

	t.Run("MissingDatesNoNetwork", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

		_, err := client.CreateBooking(ctx, "tok", models.BookingRequest{ItemID: 2, StartDate: req.StartDate})
		assert.ErrorIs(t, err, pricing.ErrMissingDates)
		assert.Zero(t, calls.Load())
	})

	t.Run("InvalidRange", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end before start", "code": "INVALID_RANGE"})
		})

		_, err := client.CreateBooking(ctx, "tok", req)
		assert.ErrorIs(t, err, ErrInvalidRange)
		assert.ErrorIs(t, err, pricing.ErrInvalidRange)
	})

	t.Run("Timeout", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		client.httpClient.Timeout = 20 * time.Millisecond

		_, err := client.CreateBooking(ctx, "tok", req)
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = io.WriteString(w, `[
				{"id":2,"item_id":2,"title":"GoPro Hero 10","start_date":"2026-02-15","end_date":"2026-02-17","total_days":3,"total_price":"4500.00","status":"rescheduled","owner_name":"Анна К."},
				{"id":1,"item_id":1,"title":"Электродрель Bosch","start_date":"2026-01-10","end_date":"2026-01-10","total_days":1,"total_price":500,"status":"completed","owner_name":"Иван С."}
			]`)
		})

		bookings, err := client.ListBookings(ctx, "tok")
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, int64(2), bookings[0].ID)
		assert.Equal(t, models.StatusPending, bookings[0].DisplayStatus())
		assert.Equal(t, models.StatusCompleted, bookings[1].DisplayStatus())
		assert.Equal(t, models.Money(500), bookings[1].TotalPrice)
	})

	t.Run("Empty", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `null`)
		})

		bookings, err := client.ListBookings(ctx, "tok")
		require.NoError(t, err)
		assert.NotNil(t, bookings)
		assert.Empty(t, bookings)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Требуется авторизация"})
		})

		_, err := client.ListBookings(ctx, "tok")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("NoToken", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.ListBookings(ctx, "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRateLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	client.limiter = newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListBookings(ctx, "tok")
	require.NoError(t, err)

	// the second call would wait a full second for a token
	_, err = client.ListBookings(ctx, "tok")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestRequestErrorFormat(t *testing.T) {
	err := &RequestError{Op: "login", Status: 401, Message: "Invalid email or password", Kind: ErrInvalidCredentials}
	assert.Equal(t, "login: invalid credentials (http 401): Invalid email or password", err.Error())

	wrapped := networkError("list_items", errors.New("dial tcp: refused"))
	assert.Equal(t, "list_items: network error: dial tcp: refused", wrapped.Error())
	assert.Empty(t, ServerMessage(errors.New("plain")))
}
