package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	ModerationSummaryTTL   time.Duration
	ListingCacheTTL        time.Duration
	ModerationMaxRetries   int
	EventsChannel          string
	SSEKeepAlive           time.Duration
	AdminMutationRateLimit int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Community Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("moderation.summary_ttl", "1m")
	v.SetDefault("listing.cache_ttl", "2m")
	v.SetDefault("moderation.max_retries", 3)
	v.SetDefault("events.channel", "portal")
	v.SetDefault("sse.keepalive", "30s")
	v.SetDefault("rate_limit.max", 30)

	summaryTTL, err := parseDuration(v, "moderation.summary_ttl")
	if err != nil {
		return Config{}, err
	}
	listingTTL, err := parseDuration(v, "listing.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	keepAlive, err := parseDuration(v, "sse.keepalive")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		ModerationSummaryTTL:   summaryTTL,
		ListingCacheTTL:        listingTTL,
		ModerationMaxRetries:   v.GetInt("moderation.max_retries"),
		EventsChannel:          strings.TrimSpace(v.GetString("events.channel")),
		SSEKeepAlive:           keepAlive,
		AdminMutationRateLimit: v.GetInt("rate_limit.max"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.ModerationMaxRetries <= 0 {
		cfg.ModerationMaxRetries = 3
	}
	if cfg.AdminMutationRateLimit <= 0 {
		cfg.AdminMutationRateLimit = 30
	}
	if cfg.EventsChannel == "" {
		cfg.EventsChannel = "portal"
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}
