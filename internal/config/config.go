package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Inventory     InventoryConfig     `yaml:"inventory"`
	Booking       BookingConfig       `yaml:"booking"`
	Pricing       PricingConfig       `yaml:"pricing"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Backup        BackupConfig        `yaml:"backup"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
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

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// InventoryConfig points at the remote Inventory Service (GraphQL over HTTP).
type InventoryConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	APIKeyHeader string        `yaml:"api_key_header"`
	Timeout      time.Duration `yaml:"timeout"`
}

type BookingConfig struct {
	HoldTTL           time.Duration `yaml:"hold_ttl"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	InitialStatusID   int64         `yaml:"initial_status_id"`
	CancelledStatusID int64         `yaml:"cancelled_status_id"`
	OTPSendLimit      int           `yaml:"otp_send_limit"`
	OTPSendWindow     time.Duration `yaml:"otp_send_window"`
	WorkerPoolSize    int           `yaml:"worker_pool_size"`
}

type PricingConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type NotificationsConfig struct {
	AMQPURL    string `yaml:"amqp_url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueSize  int    `yaml:"queue_size"`
}

// BackupConfig controls periodic snapshots of the local booking store.
type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	StoragePath   string        `yaml:"storage_path"`
	RetentionDays int           `yaml:"retention_days"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment wins over it.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Inventory.URL == "" {
		return errors.New("inventory url is required")
	}
	if _, err := url.ParseRequestURI(c.Inventory.URL); err != nil {
		return fmt.Errorf("inventory url is invalid: %w", err)
	}
	if c.Inventory.APIKey == "" {
		return errors.New("inventory api key is required")
	}

	if c.Booking.InitialStatusID == c.Booking.CancelledStatusID {
		return fmt.Errorf("booking initial and cancelled status ids must differ (both %d)", c.Booking.InitialStatusID)
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key found for '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Inventory.APIKeyHeader == "" {
		c.Inventory.APIKeyHeader = "x-api-key"
	}
	if c.Inventory.Timeout == 0 {
		c.Inventory.Timeout = 15 * time.Second
	}

	if c.Booking.HoldTTL == 0 {
		c.Booking.HoldTTL = 15 * time.Minute
	}
	if c.Booking.SweepInterval == 0 {
		c.Booking.SweepInterval = time.Minute
	}
	if c.Booking.InitialStatusID == 0 {
		c.Booking.InitialStatusID = 1
	}
	if c.Booking.CancelledStatusID == 0 {
		c.Booking.CancelledStatusID = 2
	}
	if c.Booking.OTPSendLimit == 0 {
		c.Booking.OTPSendLimit = 3
	}
	if c.Booking.OTPSendWindow == 0 {
		c.Booking.OTPSendWindow = 10 * time.Minute
	}
	if c.Booking.WorkerPoolSize == 0 {
		c.Booking.WorkerPoolSize = 2
	}

	if c.Pricing.CacheTTL == 0 {
		c.Pricing.CacheTTL = 5 * time.Minute
	}

	if c.Notifications.Exchange == "" {
		c.Notifications.Exchange = "hotel.notifications"
	}
	if c.Notifications.RoutingKey == "" {
		c.Notifications.RoutingKey = "booking.mail"
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = 128
	}

	if c.Backup.Interval == 0 {
		c.Backup.Interval = 24 * time.Hour
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
