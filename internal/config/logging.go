package config

import (
	"fmt"

	"constituencies/internal/logging"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, text
	File       string          `yaml:"file"`       // empty logs to stderr
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no logging (production)
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// Options converts the section into logging package options.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		File:       c.File,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}

func (c *LoggingConfig) validateLevel() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Level)
}

// TerminalOptions is Options for a process that draws on the terminal:
// stderr is never used as the sink, so an empty file falls back to
// DefaultLogFile.
func (c *LoggingConfig) TerminalOptions() logging.Options {
	o := c.Options()
	if o.File == "" {
		o.File = DefaultLogFile
	}
	return o
}
