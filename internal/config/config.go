// Package config provides configuration loading from environment variables
// and the persisted ThreatFox INI files.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process-level settings for the CLI and the MCP server.
type Config struct {
	ConfigPath        string        // THREATFOX_CONFIG, default "" (SearchPaths)
	HTTPClientTimeout time.Duration // THREATFOX_HTTP_TIMEOUT_MS, default 0 (context only)
	MetricsAddr       string        // THREATFOX_METRICS_ADDR, default "" (disabled)

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ConfigPath:        getEnvString("THREATFOX_CONFIG", ""),
		HTTPClientTimeout: getEnvDurationMs("THREATFOX_HTTP_TIMEOUT_MS", 0),
		MetricsAddr:       getEnvString("THREATFOX_METRICS_ADDR", ""),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// StorePaths returns the INI files to read: ConfigPath alone when set,
// SearchPaths otherwise.
func (c *Config) StorePaths() []string {
	if c.ConfigPath != "" {
		return []string{c.ConfigPath}
	}
	return SearchPaths()
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
