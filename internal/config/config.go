/**
 * @description
 * This package handles the configuration management for the ledger-service. It uses the
 * Viper library to read configuration from environment variables and an optional .env
 * file, providing a centralized way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"

	defaultJWTSecret = "ledger-dev-secret-change-me"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	AppEnv                  string `mapstructure:"APP_ENV"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	TokenTTLHours           int    `mapstructure:"TOKEN_TTL_HOURS"`
	StoreDriver             string `mapstructure:"STORE_DRIVER"`
	DataDir                 string `mapstructure:"DATA_DIR"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	LedgerEventExchange     string `mapstructure:"LEDGER_EVENT_EXCHANGE"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	SnapshotJobSchedule     string `mapstructure:"SNAPSHOT_JOB_SCHEDULE"`
	SnapshotDir             string `mapstructure:"SNAPSHOT_DIR"`
	OverdueSweepEnabled     bool   `mapstructure:"OVERDUE_SWEEP_ENABLED"`
	OverdueSweepSchedule    string `mapstructure:"OVERDUE_SWEEP_SCHEDULE"`
}

// IsProduction reports whether the service runs with production settings
// (secure cookies, mandatory JWT secret).
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig reads configuration from environment variables and an optional .env file
// located in the given path.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("TOKEN_TTL_HOURS", 168)
	viper.SetDefault("STORE_DRIVER", StoreDriverFile)
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ledger:rate_limit")
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("LEDGER_EVENT_EXCHANGE", "ledger.events")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("SNAPSHOT_JOB_SCHEDULE", "0 3 * * *")
	viper.SetDefault("SNAPSHOT_DIR", "data/snapshots")
	viper.SetDefault("OVERDUE_SWEEP_ENABLED", false)
	viper.SetDefault("OVERDUE_SWEEP_SCHEDULE", "0 1 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("APP_ENV")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_HOURS")
	_ = viper.BindEnv("STORE_DRIVER")
	_ = viper.BindEnv("DATA_DIR")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LEDGER_EVENT_EXCHANGE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("SNAPSHOT_JOB_SCHEDULE")
	_ = viper.BindEnv("SNAPSHOT_DIR")
	_ = viper.BindEnv("OVERDUE_SWEEP_ENABLED")
	_ = viper.BindEnv("OVERDUE_SWEEP_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))
	switch config.StoreDriver {
	case StoreDriverFile, StoreDriverPostgres:
	default:
		err = errors.New("STORE_DRIVER must be either \"file\" or \"postgres\"")
		return
	}
	if config.StoreDriver == StoreDriverPostgres && strings.TrimSpace(config.DatabaseURL) == "" {
		err = errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		return
	}

	config.JWTSecret = strings.TrimSpace(config.JWTSecret)
	if config.JWTSecret == "" {
		if config.IsProduction() {
			err = errors.New("JWT_SECRET must be configured in production")
			return
		}
		log.Println("level=warn component=config msg=\"JWT_SECRET not set; using development secret\"")
		config.JWTSecret = defaultJWTSecret
	}

	if config.TokenTTLHours <= 0 {
		config.TokenTTLHours = 168
	}
	if config.LoginRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative login rate limit configured; disabling\" limit=%d", config.LoginRateLimitPerMinute)
		config.LoginRateLimitPerMinute = 0
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "ledger:rate_limit"
	}
	if strings.TrimSpace(config.LedgerEventExchange) == "" {
		config.LedgerEventExchange = "ledger.events"
	}

	return
}
