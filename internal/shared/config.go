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
	FeedBase    string
	FeedKey     string
	Workers     int
	ImportIDs   []int64
	CacheTTL    time.Duration
	RecsTTL     time.Duration
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
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/mboa?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		FeedBase:    env("FEED_BASE_URL", "https://feed.mboahomes.example/v1"),
		FeedKey:     env("FEED_API_KEY", ""),
		Workers:     atoi("INGEST_WORKERS", 8),
		ImportIDs:   parseIDs(os.Getenv("IMPORT_IDS")),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RecsTTL:     time.Duration(atoi("RECS_TTL_SECONDS", 120)) * time.Second,
	}
	if len(c.ImportIDs) == 0 {
		if path := os.Getenv("IMPORT_IDS_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("IMPORT_IDS_FILE unreadable")
			} else {
				c.ImportIDs = parseIDs(strings.ReplaceAll(string(b), "\n", ","))
			}
		}
	}
	if c.FeedKey == "" {
		log.Warn().Msg("FEED_API_KEY is empty")
	}
	return c
}

// parseIDs reads a comma-separated id list, skipping blanks and junk.
func parseIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			log.Warn().Str("value", p).Msg("skipping invalid import id")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
