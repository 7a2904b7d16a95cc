package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the forum API.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	LogLevel         string
	DatabaseDriver   string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	RealtimeChannel  string
	JWTSecret        string
	ChannelsCacheTTL time.Duration
	RepliesPageSize  int
	RepliesPerMinute int
	TrendingLimit    int
	SeedEnabled      bool
	SeedToken        string
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
	v.SetEnvPrefix("FORUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Forum")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("realtime.channel", "forum")
	v.SetDefault("channels.cache_ttl", "10m")
	v.SetDefault("replies.page_size", 20)
	v.SetDefault("rate_limit.replies_per_minute", 10)
	v.SetDefault("trending.limit", 5)
	v.SetDefault("seed.enabled", false)

	ttlString := v.GetString("channels.cache_ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid channels cache ttl: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
		DatabaseDriver:   strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		RealtimeChannel:  v.GetString("realtime.channel"),
		JWTSecret:        v.GetString("jwt.secret"),
		ChannelsCacheTTL: ttl,
		RepliesPageSize:  v.GetInt("replies.page_size"),
		RepliesPerMinute: v.GetInt("rate_limit.replies_per_minute"),
		TrendingLimit:    v.GetInt("trending.limit"),
		SeedEnabled:      v.GetBool("seed.enabled"),
		SeedToken:        v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.SeedEnabled && strings.TrimSpace(cfg.SeedToken) == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.RepliesPageSize <= 0 || cfg.RepliesPageSize > 100 {
		cfg.RepliesPageSize = 20
	}

	if cfg.RepliesPerMinute <= 0 {
		cfg.RepliesPerMinute = 10
	}

	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 5
	}

	return cfg, nil
}
