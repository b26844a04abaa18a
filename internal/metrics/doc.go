// Package metrics collects per-service dispatch outcomes and health changes
// through a buffered event channel, so the request path never blocks on
// bookkeeping. The collector aggregates events into counters and response
// time percentiles, exposed as a JSON snapshot for the admin API.
//
// Events are dropped rather than queued when the buffer is full; the
// snapshot is an observability aid, not an audit log. The dispatcher keeps
// its own synchronous counters for exact outcome totals.
package metrics
