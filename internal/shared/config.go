package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	PlacesBase      string
	PlacesKey       string
	UpstreamTimeout time.Duration // 0 = none
	HTTPTimeout     time.Duration // 0 = none
	MaxRows         int
	DefaultPageSize int
	SessionIdle     time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":"+env("PORT", "3000")),
		MetricsAddr:     env("METRICS_ADDR", ""),
		PlacesBase:      env("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
		PlacesKey:       env("GOOGLE_MAPS_API_KEY", ""),
		UpstreamTimeout: time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 0)) * time.Second,
		HTTPTimeout:     time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
		MaxRows:         atoi("MAX_ROWS", 50),
		DefaultPageSize: atoi("DEFAULT_PAGE_SIZE", 20),
		SessionIdle:     time.Duration(atoi("SESSION_IDLE_MINUTES", 30)) * time.Minute,
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY is not set; searches will fail upstream")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
