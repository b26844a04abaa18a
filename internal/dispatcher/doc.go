// Package dispatcher is the single entry point for outbound calls. Every
// request runs through the target service's circuit breaker, and the outcome
// is counted per service so operators can see exactly how traffic is being
// admitted, failed, timed out or rejected.
package dispatcher
