// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, the service name to address map, health monitor
// intervals, and circuit breaker defaults with optional per-service overrides.
package config
