// Package config handles process configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr          string
	WorkDir           string // empty: session-owned temp dir
	HistoryPath       string // empty: run history disabled
	SettleMillis      int
	DefaultConfidence float64
	MatchStrategies   []string
	MatchDownscale    int
	PreviewWidth      int
	LogEntries        int
}

func Load() *Config {
	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		WorkDir:           getEnv("WORK_DIR", ""),
		HistoryPath:       getEnv("HISTORY_PATH", ""),
		SettleMillis:      getEnvInt("SETTLE_MS", 100),
		DefaultConfidence: getEnvFloat("DEFAULT_CONFIDENCE", 0.7),
		MatchStrategies:   getEnvList("MATCH_STRATEGIES", []string{"ccoeff", "sqdiff", "phash"}),
		MatchDownscale:    getEnvInt("MATCH_DOWNSCALE", 1),
		PreviewWidth:      getEnvInt("PREVIEW_WIDTH", 960),
		LogEntries:        getEnvInt("LOG_ENTRIES", 500),
	}
}

// SettleInterval converts the configured settle delay to a duration.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
