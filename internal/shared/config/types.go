package config

import (
	"fmt"
	"strings"
	"time"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	APIToken string `mapstructure:"api_token"` // empty disables API authentication
	// RefreshRateLimit caps refresh calls per client IP per minute. 0 disables it; needs redis.
	RefreshRateLimit int `mapstructure:"refresh_rate_limit"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDebug reports whether the server runs in debug mode
func (s *ServerConfig) IsDebug() bool {
	return strings.EqualFold(s.Mode, "debug")
}

type DatabaseConfig struct {
	Driver            string `mapstructure:"driver"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Path              string `mapstructure:"path"` // sqlite file path
	MaxIdleConns      int    `mapstructure:"max_idle_conns"`
	MaxOpenConns      int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime   int    `mapstructure:"conn_max_lifetime"`
	MigrationStrategy string `mapstructure:"migration_strategy"`
}

func (d *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(d.Driver) {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database)
	case "sqlite":
		return d.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PaymentsConfig holds the process-wide settings of the reconciliation engine
type PaymentsConfig struct {
	Currency            string        `mapstructure:"currency"`
	ExpirePaymentsAfter time.Duration `mapstructure:"expire_payments_after"`
	ReconcileInterval   time.Duration `mapstructure:"reconcile_interval"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	Concurrency         int           `mapstructure:"concurrency"`
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
}

type RatesConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	Currencies      []string      `mapstructure:"currencies"` // refreshed and accepted besides payments.currency
}

// CoinConfig configures one supported coin type
type CoinConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Confirmations int    `mapstructure:"confirmations"`
	XPub          string `mapstructure:"xpub"`
	Network       string `mapstructure:"network"`
	APIURL        string `mapstructure:"api_url"`
	APIKey        string `mapstructure:"api_key"`
	ChainID       string `mapstructure:"chain_id"`
}

// PayableConfig configures delivery of lifecycle events for one payable type
type PayableConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}
