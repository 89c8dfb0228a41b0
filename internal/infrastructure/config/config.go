package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/coinpayable/internal/shared/config"
	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

type Config struct {
	Server   sharedConfig.ServerConfig             `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig           `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig             `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig              `mapstructure:"redis"`
	Payments sharedConfig.PaymentsConfig           `mapstructure:"payments"`
	Rates    sharedConfig.RatesConfig              `mapstructure:"rates"`
	Coins    map[string]sharedConfig.CoinConfig    `mapstructure:"coins"`
	Payables map[string]sharedConfig.PayableConfig `mapstructure:"payables"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// configPath may point to a specific file; when empty the default search paths are used.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("COINPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are enough to run against sqlite
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate checks values that would otherwise fail late at reconciliation time
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Payments.Currency == "" {
		return fmt.Errorf("payments.currency must not be empty")
	}
	if c.Payments.ExpirePaymentsAfter <= 0 {
		return fmt.Errorf("payments.expire_payments_after must be positive")
	}
	if c.Payments.Concurrency <= 0 {
		return fmt.Errorf("payments.concurrency must be positive")
	}
	for payableType, payable := range c.Payables {
		if payable.WebhookURL == "" {
			continue
		}
		if err := utils.ValidateWebhookURL(payable.WebhookURL); err != nil {
			return fmt.Errorf("payables.%s: %w", payableType, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.api_token", "")
	v.SetDefault("server.refresh_rate_limit", 30)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "coinpay")
	v.SetDefault("database.path", "coinpay.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.migration_strategy", "auto")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Payment defaults
	v.SetDefault("payments.currency", "USD")
	v.SetDefault("payments.expire_payments_after", "15m")
	v.SetDefault("payments.reconcile_interval", "30s")
	v.SetDefault("payments.fetch_timeout", "15s")
	v.SetDefault("payments.concurrency", 4)
	v.SetDefault("payments.lock_ttl", "2m")

	// Rate defaults
	v.SetDefault("rates.api_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("rates.api_key", "")
	v.SetDefault("rates.refresh_interval", "5m")
	v.SetDefault("rates.max_age", "0s")
	v.SetDefault("rates.currencies", []string{})

	// Coin defaults
	v.SetDefault("coins.btc.network", "mainnet")
	v.SetDefault("coins.btc.api_url", "https://blockstream.info/api")
	v.SetDefault("coins.bch.network", "mainnet")
	v.SetDefault("coins.eth.network", "mainnet")
	v.SetDefault("coins.eth.api_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("coins.eth.chain_id", "1")
}
