// Package handler implements the admin HTTP API: endpoint and breaker
// inspection, per-service and global breaker resets, and dispatch counters.
package handler
