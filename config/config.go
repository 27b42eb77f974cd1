package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storefront is one scrapeable catalog root supplied by configuration.
type Storefront struct {
	Name    string
	RootURL string
}

// Config represents the application configuration
type Config struct {
	// Storefronts to discover
	Storefronts []Storefront

	// Fetch configuration
	RequestTimeout time.Duration
	RetryCount     int
	DelayMin       time.Duration
	DelayMax       time.Duration
	FetchCacheSize int

	// Discovery configuration
	MaxPagesPerStrategy  int
	BlindProbeThreshold  int
	GlobalRequestCeiling int

	// Crawl runner configuration
	WorkerCount int

	// Memcache configuration (empty address disables the block gate)
	MemcacheAddr string
	BlockTime    time.Duration

	// Sink configuration
	SinkKind           string // "csv" or "redis"
	CSVPath            string
	RedisAddr          string
	RedisDB            int
	RedisStream        string
	RedisStreamMaxLen  int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Storefronts:          parseStorefronts(getEnv("STOREFRONTS", "Jakan Phone Store|https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE")),
		RequestTimeout:       getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 20),
		RetryCount:           getEnvInt("FETCH_RETRY_COUNT", 3),
		DelayMin:             getEnvMillis("DELAY_MIN_MS", 1000),
		DelayMax:             getEnvMillis("DELAY_MAX_MS", 1800),
		FetchCacheSize:       getEnvInt("FETCH_CACHE_SIZE", 256),
		MaxPagesPerStrategy:  getEnvInt("MAX_PAGES_PER_STRATEGY", 10),
		BlindProbeThreshold:  getEnvInt("BLIND_PROBE_EMPTY_THRESHOLD", 3),
		GlobalRequestCeiling: getEnvInt("GLOBAL_REQUEST_CEILING", 120),
		WorkerCount:          getEnvInt("WORKER_COUNT", 2),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            getEnvSeconds("BLOCK_TIME_SECONDS", 500),
		SinkKind:             getEnv("SINK_KIND", "csv"),
		CSVPath:              getEnv("CSV_PATH", "data/listings.csv"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLen:    getEnvInt("REDIS_STREAM_MAX_LENGTH", 5000),
		Environment:          getEnv("JAKAN_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if len(c.Storefronts) == 0 {
		return fmt.Errorf("no storefronts configured")
	}
	for _, s := range c.Storefronts {
		u, err := url.Parse(s.RootURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("storefront %q has invalid root URL %q", s.Name, s.RootURL)
		}
	}
	if c.GlobalRequestCeiling <= 0 {
		return fmt.Errorf("global request ceiling must be positive")
	}
	if c.MaxPagesPerStrategy <= 0 {
		return fmt.Errorf("max pages per strategy must be positive")
	}
	if c.DelayMin > c.DelayMax {
		return fmt.Errorf("delay range inverted: min %v > max %v", c.DelayMin, c.DelayMax)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	switch c.SinkKind {
	case "csv", "redis":
	default:
		return fmt.Errorf("unknown sink kind %q", c.SinkKind)
	}
	return nil
}

// parseStorefronts parses "Name|URL,Name|URL" pairs.
func parseStorefronts(raw string) []Storefront {
	var out []Storefront
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, rest, found := strings.Cut(pair, "|")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)
		if name == "" || rest == "" {
			continue
		}
		out = append(out, Storefront{Name: name, RootURL: rest})
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}
