/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	AdminJWKSURL             string `mapstructure:"ADMIN_JWKS_URL"`
	EncryptionSecret         string `mapstructure:"ENCRYPTION_SECRET"`
	CreateRateLimitPerMinute int    `mapstructure:"CREATE_RATE_LIMIT_PER_MINUTE"`
	BackstopSchedule         string `mapstructure:"VERIFICATION_BACKSTOP_SCHEDULE"`
	BackstopMinAgeSeconds    int    `mapstructure:"VERIFICATION_BACKSTOP_MIN_AGE_SECONDS"`
	BackstopBatchSize        int    `mapstructure:"VERIFICATION_BACKSTOP_BATCH_SIZE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
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
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "xuno:rate_limit")
	viper.SetDefault("CREATE_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("VERIFICATION_BACKSTOP_SCHEDULE", "@every 1m")
	viper.SetDefault("VERIFICATION_BACKSTOP_MIN_AGE_SECONDS", 120)
	viper.SetDefault("VERIFICATION_BACKSTOP_BATCH_SIZE", 50)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "PAYMENT_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ADMIN_JWKS_URL")
	_ = viper.BindEnv("ENCRYPTION_SECRET", "ENCRYPTION_SECRET", "PAYMENT_ENCRYPTION_SECRET")
	_ = viper.BindEnv("CREATE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("VERIFICATION_BACKSTOP_SCHEDULE")
	_ = viper.BindEnv("VERIFICATION_BACKSTOP_MIN_AGE_SECONDS")
	_ = viper.BindEnv("VERIFICATION_BACKSTOP_BATCH_SIZE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "xuno:rate_limit"
	}
	config.BackstopSchedule = strings.TrimSpace(config.BackstopSchedule)
	if config.BackstopSchedule == "" {
		config.BackstopSchedule = "@every 1m"
	}

	if config.CreateRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative create rate limit configured; disabling\" limit=%d", config.CreateRateLimitPerMinute)
		config.CreateRateLimitPerMinute = 0
	}
	if config.BackstopMinAgeSeconds <= 0 {
		config.BackstopMinAgeSeconds = 120
	}
	if config.BackstopBatchSize <= 0 {
		config.BackstopBatchSize = 50
	}

	return
}
