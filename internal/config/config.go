package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"arenda/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Адреса облачных функций, которые использует веб-клиент.
const (
	DefaultAuthURL     = "https://functions.poehali.dev/e8625ecc-9e85-41de-9c7b-231340f1046c"
	DefaultItemsURL    = "https://functions.poehali.dev/916b95b6-3d7c-485f-996b-df65abfbe772"
	DefaultBookingsURL = "https://functions.poehali.dev/9129fc38-44a6-41c3-a36b-ec8a54dae1a6"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Storage    StorageConfig    `yaml:"storage"`
	Booking    BookingConfig    `yaml:"booking"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	AuthURL        string             `yaml:"auth_url"`
	ItemsURL       string             `yaml:"items_url"`
	BookingsURL    string             `yaml:"bookings_url"`
	TimeoutSeconds int                `yaml:"timeout_seconds"`
	HeaderExtra    string             `yaml:"header_extra"`
	ItemsCacheTTL  int                `yaml:"items_cache_ttl"`
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SessionConfig struct {
	Backend   string `yaml:"backend"`
	KeyPrefix string `yaml:"key_prefix"`

	// Failover keeps the session in memory when the primary backend fails.
	Failover bool `yaml:"failover"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile      string `yaml:"credentials_file"`
	BookingSpreadSheetID string `yaml:"bookings_spreadsheet_id"`
	SheetName            string `yaml:"sheet_name"`
}

func (g GoogleConfig) Enabled() bool {
	return g.CredentialsFile != "" && g.BookingSpreadSheetID != ""
}

// StorageConfig describes the S3-compatible bucket for listing photos.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
	Folder    string `yaml:"folder"`
	PathStyle bool   `yaml:"path_style"`
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

type BookingConfig struct {
	// StrictRange rejects past start dates and reversed ranges before pricing.
	StrictRange   bool `yaml:"strict_range"`
	WatchInterval int  `yaml:"watch_interval"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load reads the YAML file at configPath. A missing file yields defaults,
// so the CLI works without any configuration.
func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"api.auth_url":     c.API.AuthURL,
		"api.items_url":    c.API.ItemsURL,
		"api.bookings_url": c.API.BookingsURL,
	} {
		if err := validateEndpoint(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite session backend")
		}
	case BackendRedis:
		if c.Redis.Address == "" {
			return errors.New("redis address is required for redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return errors.New("telegram bot_token and chat_id are required when telegram is enabled")
	}

	if c.API.RateLimit.RPS < 0 {
		return errors.New("api.rate_limit.rps must not be negative")
	}

	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("endpoint host is empty")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "arenda"
	}
	if c.API.AuthURL == "" {
		c.API.AuthURL = DefaultAuthURL
	}
	if c.API.ItemsURL == "" {
		c.API.ItemsURL = DefaultItemsURL
	}
	if c.API.BookingsURL == "" {
		c.API.BookingsURL = DefaultBookingsURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = models.DefaultRequestTimeout
	}
	if c.API.ItemsCacheTTL == 0 {
		c.API.ItemsCacheTTL = models.DefaultItemsCacheTTL
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 1
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = BackendSQLite
	}
	if c.Session.Backend == BackendSQLite && c.Database.Path == "" {
		c.Database.Path = "data/arenda.db"
	}
	if c.Session.Backend == BackendRedis && c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "arenda:"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Bookings"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.Folder == "" {
		c.Storage.Folder = "listings"
	}
	if c.Booking.WatchInterval <= 0 {
		c.Booking.WatchInterval = models.DefaultWatchInterval
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}
