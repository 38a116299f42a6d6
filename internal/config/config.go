package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"        validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"      validate:"required"`
	Auth          AuthConfig          `mapstructure:"auth"          validate:"required"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// AuthRateLimitPerMinute bounds login and registration attempts per client IP.
	// Zero disables the limiter.
	AuthRateLimitPerMinute int `mapstructure:"auth_rate_limit_per_minute" validate:"gte=0"`
	AuthRateLimitBurst     int `mapstructure:"auth_rate_limit_burst"      validate:"gte=0"`

	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                    string `mapstructure:"jwt_secret"                      validate:"required,min=32"`
	AccessTokenLifetimeMinutes   int    `mapstructure:"access_token_lifetime_minutes"   validate:"gt=0,lte=1440"`
	RefreshTokenLifetimeMinutes  int    `mapstructure:"refresh_token_lifetime_minutes"  validate:"gt=0,lte=43200"`
	PasswordResetLifetimeMinutes int    `mapstructure:"password_reset_lifetime_minutes" validate:"gt=0,lte=1440"`
	BcryptCost                   int    `mapstructure:"bcrypt_cost"                     validate:"gte=4,lte=31"`
}

// AccessTokenLifetime returns the access token TTL.
func (c AuthConfig) AccessTokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenLifetimeMinutes) * time.Minute
}

// RefreshTokenLifetime returns the refresh token TTL.
func (c AuthConfig) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshTokenLifetimeMinutes) * time.Minute
}

// PasswordResetLifetime returns the password reset token TTL.
func (c AuthConfig) PasswordResetLifetime() time.Duration {
	return time.Duration(c.PasswordResetLifetimeMinutes) * time.Minute
}

// CacheConfig controls the optional Redis cache-aside layer.
type CacheConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	RedisURL          string `mapstructure:"redis_url"           validate:"required_if=Enabled true"`
	DefaultTTLSeconds int    `mapstructure:"default_ttl_seconds" validate:"gt=0"`
}

// DefaultTTL returns the cache entry lifetime.
func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// NotificationsConfig controls the periodic deadline sweep.
type NotificationsConfig struct {
	SweepEnabled  bool   `mapstructure:"sweep_enabled"`
	SweepSchedule string `mapstructure:"sweep_schedule" validate:"required_if=SweepEnabled true"`
	SweepWorkers  int    `mapstructure:"sweep_workers"  validate:"gt=0"`
}
