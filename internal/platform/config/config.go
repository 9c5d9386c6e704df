package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// Config is the server configuration, read from the environment.
type Config struct {
	Port             string
	BasePath         string
	DataDir          string
	DataURL          string
	FixtureCacheSize int
	TickInterval     time.Duration
	LogLevel         string
	LogFormat        string
	ChartsAssetsHost string
}

// FromEnv reads every setting, falling back to development defaults.
func FromEnv() Config {
	return Config{
		Port:             GetEnv("PORT", "8080"),
		BasePath:         NormalizeBasePath(GetEnv("BASE_PATH", "")),
		DataDir:          GetEnv("DATA_DIR", "./public/data"),
		DataURL:          GetEnv("DATA_URL", ""),
		FixtureCacheSize: GetEnvInt("FIXTURE_CACHE_SIZE", 16),
		TickInterval:     GetEnvDuration("TICK_INTERVAL", 100*time.Millisecond),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		LogFormat:        GetEnv("LOG_FORMAT", "json"),
		ChartsAssetsHost: GetEnv("CHARTS_ASSETS_HOST", ""),
	}
}

// NormalizeBasePath returns p with one leading slash and no trailing slash.
// The root path normalises to "".
func NormalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat is GetEnvInt for floating point values.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration parses values such as "100ms" or "2s". A bare integer is
// read as milliseconds. Non-positive durations use fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}
