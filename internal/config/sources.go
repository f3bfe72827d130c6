package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const configFileName = "tasklist.toml"

// findProjectConfigFile returns tasklist.toml or .tasklist.toml from the
// working directory.
func findProjectConfigFile() string {
	return firstExisting(configFileName, "."+configFileName)
}

// findUserConfigFile prefers ~/.tasklist/tasklist.toml over the OS config
// directory.
func findUserConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".tasklist", configFileName))
	}
	if dir := osUserConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "tasklist", configFileName))
	}
	return firstExisting(candidates...)
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// osUserConfigDir is os.UserConfigDir with XDG_CONFIG_HOME honored on every
// Unix. It returns "" when nothing can be determined.
func osUserConfigDir() string {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

// Entry is one effective setting and where it came from.
type Entry struct {
	Name   string
	Value  string
	Source ConfigSource
}

// Entries returns every configurable field in a stable order.
func (cws *ConfigWithSources) Entries() []Entry {
	fields := configFields()
	entries := make([]Entry, 0, len(fields))
	for _, field := range fields {
		source := cws.Sources[field]
		if source == "" {
			source = SourceDefault
		}
		entries = append(entries, Entry{
			Name:   field,
			Value:  cws.Config.Value(field),
			Source: source,
		})
	}
	return entries
}
