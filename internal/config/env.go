package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFile is read from the working directory.
const dotenvFile = ".env"

// envLookup resolves a variable from the process environment first and the
// .env file second, reporting which one answered.
type envLookup func(key string) (string, ConfigSource, bool)

// readDotenv parses the .env file without touching the process environment.
// A missing file yields an empty map.
func readDotenv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

func newEnvLookup(dotenv map[string]string) envLookup {
	return func(key string) (string, ConfigSource, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, SourceEnv, true
		}
		if v, ok := dotenv[key]; ok && v != "" {
			return v, SourceDotenv, true
		}
		return "", "", false
	}
}

// loadFromEnv overrides config from environment variables and updates
// source tracking when sources is non-nil.
func loadFromEnv(cfg *Config, lookup envLookup, sources map[string]ConfigSource) error {
	set := func(field string, source ConfigSource) {
		if sources != nil {
			sources[field] = source
		}
	}
	str := func(key, field string, target *string) {
		if v, source, ok := lookup(key); ok {
			*target = v
			set(field, source)
		}
	}
	boolean := func(key, field string, target *bool) {
		if v, source, ok := lookup(key); ok {
			*target = boolFromString(v)
			set(field, source)
		}
	}

	str("TASKLIST_BASE_URL", "base_url", &cfg.BaseURL)
	str("TASKLIST_SCHEMA", "schema_file", &cfg.SchemaFile)
	str("TASKLIST_LOG_DIR", "log_dir", &cfg.LogDir)
	str("TASKLIST_LOG_LEVEL", "log_level", &cfg.LogLevel)
	str("TASKLIST_LOG_FORMAT", "log_format", &cfg.LogFormat)
	boolean("TASKLIST_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	boolean("TASKLIST_LOG_CALLER", "log_caller", &cfg.LogCaller)
	str("TASKLIST_SERVER_ADDR", "server.addr", &cfg.Server.Addr)
	str("TASKLIST_SERVER_DB", "server.db_path", &cfg.Server.DBPath)

	if v, source, ok := lookup("TASKLIST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKLIST_TIMEOUT: %w", err)
		}
		cfg.Timeout = Duration{d}
		set("timeout", source)
	}
	if v, source, ok := lookup("TASKLIST_NOTIFY_SECONDS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TASKLIST_NOTIFY_SECONDS: %w", err)
		}
		cfg.NotifySeconds = n
		set("notify_seconds", source)
	}
	return nil
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
