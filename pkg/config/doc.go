// Package config loads service configuration from defaults, an optional
// YAML file, and environment variables, with the environment taking
// precedence.
package config
