package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Valuation Valuation `mapstructure:"valuation"`
	Refresh   Refresh   `mapstructure:"refresh"`
	Accounts  []Account `mapstructure:"accounts"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds the configuration for the dashboard API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Valuation holds the configuration for the valuation engine.
type Valuation struct {
	BaseCurrency string `mapstructure:"base_currency"`
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds
}

// Refresh holds the configuration for the periodic broker data import.
type Refresh struct {
	Schedule  string `mapstructure:"schedule"`
	OnStartup bool   `mapstructure:"on_startup"`
}

// Account holds the connection settings for one broker account.
type Account struct {
	Name           string  `mapstructure:"name"`
	Broker         string  `mapstructure:"broker"`
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "dashboard.db")
	viper.SetDefault("valuation.base_currency", "EUR")
	viper.SetDefault("valuation.cache_ttl", 900)
	viper.SetDefault("refresh.schedule", "@every 1h")
	viper.SetDefault("refresh.on_startup", true)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
