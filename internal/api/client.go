package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"arenda/internal/catalog"
	"arenda/internal/config"
	"arenda/internal/metrics"
	"arenda/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	opLogin         = "login"
	opRegister      = "register"
	opVerify        = "verify"
	opListItems     = "list_items"
	opCreateListing = "create_listing"
	opCreateBooking = "create_booking"
	opListBookings  = "list_bookings"
)

const itemsCachePrefix = "arenda:items:"

// Client talks to the three marketplace functions: auth, items and bookings.
// Every call is a single round trip; nothing is retried.
type Client struct {
	authURL     string
	itemsURL    string
	bookingsURL string
	apiExtra    string
	httpClient  *http.Client
	limiter     *rateLimiter
	logger      *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration

	fallback func() []models.Item
}

func NewClient(cfg config.APIConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = models.DefaultRequestTimeout * time.Second
	}
	return &Client{
		authURL:     cfg.AuthURL,
		itemsURL:    cfg.ItemsURL,
		bookingsURL: cfg.BookingsURL,
		apiExtra:    cfg.HeaderExtra,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     newRateLimiter(cfg.RateLimit),
		logger:      logger,
		fallback:    catalog.Sample,
	}
}

// UseRedisCache configures optional Redis caching for the items listing.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseFallback replaces the built-in sample served when the items call fails.
func (c *Client) UseFallback(items []models.Item) {
	c.fallback = func() []models.Item {
		out := make([]models.Item, len(items))
		copy(out, items)
		return out
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache API response")
	}
}

func (c *Client) doGet(ctx context.Context, op, endpoint, token string, out any) error {
	return c.do(ctx, op, http.MethodGet, endpoint, token, nil, out)
}

func (c *Client) doPost(ctx context.Context, op, endpoint, token string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, endpoint, token, body, out)
}

func (c *Client) do(ctx context.Context, op, method, endpoint, token string, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, op, method, endpoint, token, body, out)
	elapsed := time.Since(start)
	metrics.ObserveAPI(op, err, elapsed)

	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("API call failed")
		return err
	}
	c.logger.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("API call succeeded")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint, token string, body, out any) error {
	if err := c.limiter.wait(ctx, endpoint); err != nil {
		return networkError(op, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, models.MaxResponseBytes))
	if err != nil {
		return networkError(op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return classify(op, resp.StatusCode, eb)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return networkError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		// the backend functions read X-Authorization
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Authorization", "Bearer "+token)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}
}
