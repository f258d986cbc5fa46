// Package config loads runtime configuration from YAML files with
// environment variable overrides. Precedence is defaults, then file,
// then environment.
package config
