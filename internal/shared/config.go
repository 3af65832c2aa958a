package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Fetch stage
	SerpBase           string
	SerpKey            string
	Query              string
	Centers            []string // "@lat,lon,zoom" per center
	MaxPages           int
	MaxPlaces          int
	MaxReviewsPerPlace int
	Workers            int

	CacheTTL time.Duration
}

// Default centers cover north, downtown and south Evanston; results are
// merged and deduplicated by data_id.
const defaultCenters = "@42.0646,-87.6904,14z,@42.0451,-87.6880,14z,@42.0333,-87.6811,14z"

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
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ":9100"),
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/resto?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisDB:            atoi("REDIS_DB", 0),
		RedisPass:          env("REDIS_PASSWORD", ""),
		SerpBase:           env("SERP_BASE_URL", "https://serpapi.com"),
		SerpKey:            env("SERP_API_KEY", ""),
		Query:              env("SEARCH_QUERY", "restaurants"),
		Centers:            splitCenters(env("SEARCH_CENTERS", defaultCenters)),
		MaxPages:           atoi("FETCH_MAX_PAGES", 2),
		MaxPlaces:          atoi("FETCH_MAX_PLACES", 20),
		MaxReviewsPerPlace: atoi("FETCH_MAX_REVIEWS_PER_PLACE", 20),
		Workers:            atoi("FETCH_WORKERS", 4),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.SerpKey == "" {
		log.Warn().Msg("SERP_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// splitCenters splits on commas that start a new "@" center, since the
// centers themselves contain commas.
func splitCenters(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",@") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, "@") {
			part = "@" + part
		}
		out = append(out, part)
	}
	return out
}
