// Package config loads service settings from the environment and the
// keyword dictionary from YAML.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bricon/seo-engine/analyzer"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// Config holds the service settings
type Config struct {
	Port            string
	GinMode         string
	DevMode         bool
	LogLevel        string
	DataDir         string
	DatabasePath    string
	KeywordsFile    string
	SiteDomain      string
	ScoreTTL        time.Duration
	PreviewCacheTTL time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	RescoreSchedule string
}

// LoadEnv reads .env.development, falling back to .env. A missing file is
// not an error; it reports which file, if any, was loaded.
func LoadEnv() string {
	if err := godotenv.Load(".env.development"); err == nil {
		return ".env.development"
	}
	if err := godotenv.Load(); err == nil {
		return ".env"
	}
	return ""
}

// Load builds a Config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8082"),
		GinMode:         getEnv("GIN_MODE", "release"),
		DevMode:         os.Getenv("DEV_MODE") == "true",
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DataDir:         getEnv("DATA_DIR", "data"),
		KeywordsFile:    os.Getenv("KEYWORDS_FILE"),
		SiteDomain:      getEnv("SITE_DOMAIN", "bricon.com.vn"),
		RescoreSchedule: getEnv("RESCORE_SCHEDULE", "@hourly"),
	}
	cfg.DatabasePath = getEnv("DATABASE_PATH", filepath.Join(cfg.DataDir, "seo.db"))

	var err error
	if cfg.ScoreTTL, err = getDuration("SEO_SCORE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.PreviewCacheTTL, err = getDuration("PREVIEW_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}

	if cfg.ScoreTTL <= 0 {
		return nil, fmt.Errorf("SEO_SCORE_TTL must be positive, got %s", cfg.ScoreTTL)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %v rps burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	return cfg, nil
}

// LoadKeywords reads the keyword dictionary from path, or the embedded
// default when path is empty
func LoadKeywords(path string) (analyzer.KeywordConfig, error) {
	data := defaultKeywords
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return analyzer.KeywordConfig{}, fmt.Errorf("read keywords file: %w", err)
		}
	}
	return ParseKeywords(data)
}

// ParseKeywords decodes and validates a YAML keyword dictionary
func ParseKeywords(data []byte) (analyzer.KeywordConfig, error) {
	var kw analyzer.KeywordConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&kw); err != nil {
		return analyzer.KeywordConfig{}, fmt.Errorf("decode keywords: %w", err)
	}
	if err := kw.Validate(); err != nil {
		return analyzer.KeywordConfig{}, fmt.Errorf("invalid keywords: %w", err)
	}
	return kw, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
