package config

import (
	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
)

// Config is the merged packsmith configuration
type Config struct {
	Compression Compression `koanf:"compression"`
	Pack200     bool        `koanf:"pack200"`
	Output      Output      `koanf:"output"`
	Install     Install     `koanf:"install"`
}

// Compression selects the per-file codec
type Compression struct {
	Format string `koanf:"format"`
	Level  int    `koanf:"level"`
}

// Output controls where compiled installers go
type Output struct {
	Dir  string `koanf:"dir"`
	Name string `koanf:"name"`
}

// Install holds installer runtime settings
type Install struct {
	// DefaultPath seeds INSTALL_PATH when nothing else sets it
	DefaultPath string `koanf:"path"`
}

// Validate rejects unknown formats and out-of-range levels
func (c *Config) Validate() error {
	if _, err := compression.Parse(c.Compression.Format); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid compression.format")
	}
	if !compression.ValidLevel(c.Compression.Level) {
		return errors.Newf(errors.ErrConfigValid, "compression.level must be -1 or 0-9, got %d", c.Compression.Level)
	}
	if c.Output.Name == "" {
		return errors.New(errors.ErrConfigValid, "output.name must not be empty")
	}
	return nil
}

// Format returns the parsed compression format. Call Validate first.
func (c *Config) Format() compression.Format {
	f, _ := compression.Parse(c.Compression.Format)
	return f
}
