// Package config provides configuration loading, validation, and defaults
// for warden.
//
// Configuration is loaded from a YAML file, defaults are applied for any
// omitted fields, and WARDEN_* environment variables override file values.
// Validation collects every problem into one ValidationError instead of
// stopping at the first.
//
// Watcher reloads the file on change via fsnotify so the daemon can pick up
// policy table edits without a restart.
package config
