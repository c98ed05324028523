package config

import "fmt"

// PermissionError reports a settings file the process cannot read or
// write. Fix carries a concrete command the user can run.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string
	Details string
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied (cannot %s settings file): %s\n", e.Op, e.Path)
	if e.Details != "" {
		msg += e.Details + "\n"
	}
	msg += "💡 Fix: " + e.Fix
	return msg
}

// ConfigNotFoundError reports a missing settings file. Callers that can
// regenerate defaults (LoadOrCreate) treat it as a signal, not a failure.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	hint := e.Hint
	if hint == "" {
		hint = "any command creates a default settings file on first run"
	}
	return fmt.Sprintf("settings file not found: %s\n\n💡 %s", e.Path, hint)
}

// InvalidConfigError reports a settings file that parsed but failed
// validation, or could not be parsed at all. Message holds the offending
// knob or the decode error.
type InvalidConfigError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid settings file: %s\n", e.Path)
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}
