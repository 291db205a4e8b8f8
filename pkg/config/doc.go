// Package config handles build and install configuration for packsmith.
// Values are layered from embedded defaults, an optional project file
// (packsmith.toml or .packsmith.toml), PACKSMITH_* environment variables
// and command-line overrides, in that order.
package config
