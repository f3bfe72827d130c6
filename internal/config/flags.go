package config

import "flag"

// flagFields maps flag names to config field names for source tracking.
var flagFields = map[string]string{
	"base-url":       "base_url",
	"timeout":        "timeout",
	"schema":         "schema_file",
	"notify-seconds": "notify_seconds",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"server-addr":    "server.addr",
	"server-db":      "server.db_path",
}

// parseFlags binds global flags onto cfg, using the values loaded so far as
// defaults, and parses args. Flags the user set are recorded in sources.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Task collection URL")
	fs.DurationVar(&cfg.Timeout.Duration, "timeout", cfg.Timeout.Duration, "Per-request timeout")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to a task schema file")
	fs.IntVar(&cfg.NotifySeconds, "notify-seconds", cfg.NotifySeconds, "Seconds a notification stays visible")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller in logs")
	fs.StringVar(&cfg.Server.Addr, "server-addr", cfg.Server.Addr, "Listen address for serve")
	fs.StringVar(&cfg.Server.DBPath, "server-db", cfg.Server.DBPath, "bbolt database for serve (empty = memory)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
