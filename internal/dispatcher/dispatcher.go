package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/edgegate/dispatch/internal/circuitbreaker"
	"github.com/edgegate/dispatch/internal/metrics"
	"github.com/edgegate/dispatch/internal/registry"
)

// ErrEmptyService is returned when a request names no target service.
var ErrEmptyService = errors.New("service name must not be empty")

// Stats are the exact per-service outcome counters, updated synchronously
// on every dispatch.
type Stats struct {
	Success  int64 `json:"success"`
	Failure  int64 `json:"failure"`
	Timeout  int64 `json:"timeout"`
	Rejected int64 `json:"rejected"`
}

// Dispatcher routes every outbound operation through the per-service
// circuit breaker and classifies the result.
type Dispatcher struct {
	logger    *slog.Logger
	registry  *registry.Registry
	breakers  *circuitbreaker.Registry
	collector *metrics.Collector

	mutex sync.Mutex
	stats map[string]*Stats
}

// NewDispatcher builds a dispatcher. The collector is optional; pass nil to
// skip async metric events.
func NewDispatcher(
	logger *slog.Logger,
	reg *registry.Registry,
	breakers *circuitbreaker.Registry,
	collector *metrics.Collector,
) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		registry:  reg,
		breakers:  breakers,
		collector: collector,
		stats:     make(map[string]*Stats),
	}
}

// ExecuteRequest runs op under the breaker for serviceName. The operation's
// result and error pass through unchanged; rejections and timeouts surface
// as *circuitbreaker.CircuitOpenError and *circuitbreaker.OperationTimeoutError.
//
// An unregistered service is allowed through: the breaker still protects the
// call, the registry just has no health data for it yet.
func (d *Dispatcher) ExecuteRequest(
	ctx context.Context,
	serviceName string,
	op circuitbreaker.Operation,
) (any, error) {
	if serviceName == "" {
		return nil, ErrEmptyService
	}

	if _, ok := d.registry.Get(serviceName); !ok {
		d.logger.Warn("Dispatching to unregistered service",
			slog.String("service", serviceName))
	}

	breaker := d.breakers.GetBreaker(serviceName)

	start := time.Now()
	result, err := breaker.Execute(ctx, op)
	elapsed := time.Since(start)

	d.record(serviceName, err, elapsed)

	return result, err
}

func (d *Dispatcher) record(serviceName string, err error, elapsed time.Duration) {
	d.mutex.Lock()
	stats, ok := d.stats[serviceName]
	if !ok {
		stats = &Stats{}
		d.stats[serviceName] = stats
	}

	var eventType metrics.EventType
	var eventDuration time.Duration

	switch {
	case err == nil:
		stats.Success++
		eventType = metrics.EventRequestSuccess
		eventDuration = elapsed

	case circuitbreaker.IsCircuitOpen(err):
		stats.Rejected++
		eventType = metrics.EventRequestRejected

	case circuitbreaker.IsOperationTimeout(err):
		stats.Timeout++
		eventType = metrics.EventRequestTimeout

	default:
		stats.Failure++
		eventType = metrics.EventRequestFailure
		eventDuration = elapsed
	}
	d.mutex.Unlock()

	if d.collector != nil {
		d.collector.Emit(metrics.MetricEvent{
			Type:      eventType,
			Timestamp: time.Now(),
			Service:   serviceName,
			Duration:  eventDuration,
		})
	}
}

// Stats returns the outcome counters for one service. The second return is
// false if the service has never been dispatched to.
func (d *Dispatcher) Stats(serviceName string) (Stats, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	stats, ok := d.stats[serviceName]
	if !ok {
		return Stats{}, false
	}
	return *stats, true
}

// AllStats returns a copy of the outcome counters for every dispatched
// service.
func (d *Dispatcher) AllStats() map[string]Stats {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	out := make(map[string]Stats, len(d.stats))
	for name, stats := range d.stats {
		out[name] = *stats
	}
	return out
}

// BreakerStats returns the breaker snapshot for one service, without
// creating a breaker for a service that has never been dispatched to.
func (d *Dispatcher) BreakerStats(serviceName string) (circuitbreaker.Stats, bool) {
	breaker, ok := d.breakers.Get(serviceName)
	if !ok {
		return circuitbreaker.Stats{}, false
	}
	return breaker.Stats(), true
}

// AllBreakerStats returns a snapshot of every breaker.
func (d *Dispatcher) AllBreakerStats() map[string]circuitbreaker.Stats {
	return d.breakers.Stats()
}

// ListEndpoints returns every registered endpoint.
func (d *Dispatcher) ListEndpoints() []registry.ServiceEndpoint {
	return d.registry.All()
}

// ListHealthyEndpoints returns only the endpoints whose last probe passed.
func (d *Dispatcher) ListHealthyEndpoints() []registry.ServiceEndpoint {
	return d.registry.Healthy()
}

// ResetBreaker forces one breaker back to closed. Returns false if no
// breaker exists for the service.
func (d *Dispatcher) ResetBreaker(serviceName string) bool {
	breaker, ok := d.breakers.Get(serviceName)
	if !ok {
		return false
	}

	breaker.Reset()
	d.logger.Info("Circuit breaker reset", slog.String("service", serviceName))
	return true
}

// ResetAllBreakers forces every breaker back to closed.
func (d *Dispatcher) ResetAllBreakers() {
	d.breakers.ResetAll()
	d.logger.Info("All circuit breakers reset")
}
