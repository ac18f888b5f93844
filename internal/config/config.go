/**
 * @description
 * This package handles the configuration management for the fundraising-service. It uses
 * Viper to read settings from an optional .env file and the environment, so the same
 * binary runs locally and in deployment without code changes.
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

const (
	defaultRateLimitPrefix = "fundraising:rate_limit"
	defaultAppBaseURL      = "http://localhost:3000"
	defaultCurrency        = "usd"
)

// Config holds all the configuration variables for the fundraising-service.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	DonationEventsExchange     string `mapstructure:"DONATION_EVENTS_EXCHANGE"`
	StripeSecretKey            string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret        string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	CheckoutCurrency           string `mapstructure:"CHECKOUT_CURRENCY"`
	AppBaseURL                 string `mapstructure:"APP_BASE_URL"`
	AuthSecret                 string `mapstructure:"AUTH_SECRET"`
	DirectDonationsEnabled     bool   `mapstructure:"DIRECT_DONATIONS_ENABLED"`
	DonationRateLimitPerMinute int    `mapstructure:"DONATION_RATE_LIMIT_PER_MINUTE"`
	CORSAllowedOrigins         string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from an optional .env file under path and from the environment.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", defaultRateLimitPrefix)
	viper.SetDefault("DONATION_EVENTS_EXCHANGE", "fundraising_events")
	viper.SetDefault("CHECKOUT_CURRENCY", defaultCurrency)
	viper.SetDefault("APP_BASE_URL", defaultAppBaseURL)
	viper.SetDefault("DIRECT_DONATIONS_ENABLED", false)
	viper.SetDefault("DONATION_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("DONATION_EVENTS_EXCHANGE")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("CHECKOUT_CURRENCY")
	_ = viper.BindEnv("APP_BASE_URL", "APP_BASE_URL", "NEXT_PUBLIC_APP_URL")
	_ = viper.BindEnv("AUTH_SECRET", "AUTH_SECRET", "NEXTAUTH_SECRET")
	_ = viper.BindEnv("DIRECT_DONATIONS_ENABLED")
	_ = viper.BindEnv("DONATION_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// The .env file is optional.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

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
		config.RedisRateLimitPrefix = defaultRateLimitPrefix
	}
	config.StripeSecretKey = strings.TrimSpace(config.StripeSecretKey)
	config.StripeWebhookSecret = strings.TrimSpace(config.StripeWebhookSecret)

	config.CheckoutCurrency = strings.ToLower(strings.TrimSpace(config.CheckoutCurrency))
	if config.CheckoutCurrency == "" {
		config.CheckoutCurrency = defaultCurrency
	}

	config.AppBaseURL = strings.TrimRight(strings.TrimSpace(config.AppBaseURL), "/")
	if config.AppBaseURL == "" {
		config.AppBaseURL = defaultAppBaseURL
	}

	config.AuthSecret = strings.TrimSpace(config.AuthSecret)
	if config.AuthSecret == "" {
		log.Printf("level=warn component=config msg=\"AUTH_SECRET is not set; session cookies cannot be issued or verified\"")
	}

	if config.DonationRateLimitPerMinute <= 0 {
		config.DonationRateLimitPerMinute = 30
	}

	return
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into a list, falling back to the app base URL.
func (c Config) AllowedOrigins() []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 && c.AppBaseURL != "" {
		origins = append(origins, c.AppBaseURL)
	}
	return origins
}
