package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENVIRONMENT" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Daily view quota settings
	DailyViewLimit int `envconfig:"DAILY_VIEW_LIMIT" default:"50"`

	// Listing settings
	PageSize       int `envconfig:"PAGE_SIZE" default:"20"`
	TopAgencyCount int `envconfig:"TOP_AGENCY_COUNT" default:"7"`

	// Cache settings. Listings churn with search traffic while dashboard
	// aggregates only move when the collections are reloaded, so the two
	// TTLs are tuned independently.
	ListingCacheTTLSec   int    `envconfig:"LISTING_CACHE_TTL_SEC" default:"60"`
	DashboardCacheTTLSec int    `envconfig:"DASHBOARD_CACHE_TTL_SEC" default:"300"`
	RedisAddr            string `envconfig:"REDIS_ADDR"`
	RedisPassword        string `envconfig:"REDIS_PASSWORD"`
	CacheKeyPrefix       string `envconfig:"CACHE_KEY_PREFIX" default:"dashboard:cache"`

	// Per-user rate limit on the unlock endpoints
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
