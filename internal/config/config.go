package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"    validate:"required"`
	StatusAPI StatusAPIConfig `mapstructure:"status_api" validate:"required"`
	Tracker   TrackerConfig   `mapstructure:"tracker"    validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Storage drivers understood by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the durable backend for the task descriptor.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory file sqlite postgres"`
	// Path is the file location for the file and sqlite drivers.
	Path string `mapstructure:"path" validate:"required_if=Driver file,required_if=Driver sqlite"`
	// URL is the connection string for the postgres driver.
	URL string `mapstructure:"url" validate:"required_if=Driver postgres"`
	// Scope keys the descriptor row; one active tracker per scope.
	Scope string `mapstructure:"scope" validate:"required"`
}

// StatusAPIConfig contains settings for the remote status endpoint.
type StatusAPIConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	PathPrefix string        `mapstructure:"path_prefix" validate:"required,startswith=/"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gt=0"`
	// RequestsPerSecond caps outbound status checks. Zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst"               validate:"gte=1"`
}

// TrackerConfig contains polling and notification settings.
type TrackerConfig struct {
	PollInterval         time.Duration `mapstructure:"poll_interval"         validate:"gt=0"`
	GracePeriod          time.Duration `mapstructure:"grace_period"          validate:"gte=0"`
	MaxBackoff           time.Duration `mapstructure:"max_backoff"           validate:"gtefield=PollInterval"`
	PollDuringGrace      bool          `mapstructure:"poll_during_grace"`
	NotificationsEnabled bool          `mapstructure:"notifications_enabled"`
	RecentNotifications  int           `mapstructure:"recent_notifications"  validate:"gte=0"`
}

// AuthConfig contains settings for protecting the mutating API routes.
// An empty JWTSecret disables authentication.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c AuthConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}
