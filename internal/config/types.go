package config

import (
	"fmt"
	"time"

	"github.com/nibzard/tasklist-go/internal/remote"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotenv   ConfigSource = "dotenv file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, in load order.
	Files []string
	// Warnings holds non-fatal problems such as unknown keys.
	Warnings []string
}

// Default values.
const (
	DefaultTimeout       = remote.DefaultTimeout
	DefaultNotifySeconds = 3
	DefaultLogDir        = "~/.tasklist/logs"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultServerAddr    = "127.0.0.1:8080"
)

// Duration is a time.Duration that decodes from strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the full configuration for tasklist.
type Config struct {
	// Remote collection
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`

	// Optional replacement for the embedded task schema
	SchemaFile string `toml:"schema_file"`

	// How long TUI notifications stay on screen
	NotifySeconds int `toml:"notify_seconds"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Local collection server
	Server ServerConfig `toml:"server"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// ServerConfig configures `tasklist serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// DBPath selects a bbolt file; empty keeps tasks in memory.
	DBPath string `toml:"db_path"`
}

// NotifyDuration returns the notification lifetime.
func (c *Config) NotifyDuration() time.Duration {
	return time.Duration(c.NotifySeconds) * time.Second
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.BaseURL = remote.DefaultBaseURL
	cfg.Timeout = Duration{DefaultTimeout}
	cfg.NotifySeconds = DefaultNotifySeconds
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Server.Addr = DefaultServerAddr
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"base_url",
		"timeout",
		"schema_file",
		"notify_seconds",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"server.addr",
		"server.db_path",
	}
}

// Value returns the effective value of a field named as in configFields.
func (c *Config) Value(field string) string {
	switch field {
	case "base_url":
		return c.BaseURL
	case "timeout":
		return c.Timeout.String()
	case "schema_file":
		return c.SchemaFile
	case "notify_seconds":
		return fmt.Sprint(c.NotifySeconds)
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps)
	case "log_caller":
		return fmt.Sprint(c.LogCaller)
	case "server.addr":
		return c.Server.Addr
	case "server.db_path":
		return c.Server.DBPath
	}
	return ""
}
