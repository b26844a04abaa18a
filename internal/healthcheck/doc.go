// Package healthcheck runs the recurring health monitor that probes every
// registered endpoint and writes the outcomes back to the registry. Probe
// failures never escape the monitor; they only flip the endpoint's health.
package healthcheck
