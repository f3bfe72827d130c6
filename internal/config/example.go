package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by .env, TASKLIST_* environment variables or CLI flags

# Task collection endpoint
base_url = "https://670131c8b52042b542d7097f.mockapi.io/todolist-hcu/todolist"

# Per-request timeout
timeout = "10s"

# Replacement task schema (JSON Schema, draft 2020-12); embedded schema if empty
# schema_file = "task.schema.json"

# Seconds a notification stays on screen
notify_seconds = 3

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasklist/logs"
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Local collection server (tasklist serve)
[server]
addr = "127.0.0.1:8080"
# db_path = "~/.tasklist/tasks.db"
`
}
