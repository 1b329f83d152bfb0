package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	PropertiesPath string
	ReviewsPath    string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	ChannelBase    string
	ChannelKey     string
	Workers        int
	PageSize       int
	MaxPages       int
	CacheTTL       time.Duration
}

func Load() Config {
	// .env is convenience for local runs; absence is fine
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		PropertiesPath: env("PROPERTIES_PATH", "data/properties.json"),
		ReviewsPath:    env("REVIEWS_PATH", "data/reviews.json"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		ChannelBase:    env("CHANNEL_BASE_URL", "https://api.hostaway.com/v1"),
		ChannelKey:     env("CHANNEL_API_KEY", ""),
		Workers:        atoi("IMPORT_WORKERS", 4),
		PageSize:       atoi("IMPORT_PAGE_SIZE", 100),
		MaxPages:       atoi("IMPORT_MAX_PAGES", 10),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.ChannelKey == "" {
		log.Warn().Msg("CHANNEL_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
