package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/edgegate/dispatch/internal/metrics"
	"github.com/edgegate/dispatch/internal/registry"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// Monitor probes every registered endpoint on a fixed interval, one
// goroutine per endpoint, and records pass/fail outcomes in the registry.
type Monitor struct {
	registry     *registry.Registry
	interval     time.Duration
	probeTimeout time.Duration
	client       *http.Client
	logger       *slog.Logger
	collector    *metrics.Collector

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor builds a monitor over the given registry. The collector is
// optional; pass nil to skip health-change events.
func NewMonitor(
	reg *registry.Registry,
	interval time.Duration,
	probeTimeout time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return &Monitor{
		registry:     reg,
		interval:     interval,
		probeTimeout: probeTimeout,
		client: &http.Client{
			Timeout: probeTimeout,
		},
		logger:    logger,
		collector: collector,
	}
}

// Start launches the probe loop. A second call while running is a no-op, so
// no duplicate timers can exist.
func (m *Monitor) Start(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cancel != nil {
		m.logger.Warn("Health monitor already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx, m.done)
}

// Stop cancels the probe loop and waits for it to exit. Safe to call when
// not running.
func (m *Monitor) Stop() {
	m.mutex.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mutex.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.logger.Info("Health monitor started",
		slog.Duration("interval", m.interval),
		slog.Duration("probe_timeout", m.probeTimeout))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// First cycle runs immediately so endpoints don't sit Unknown for a
	// full interval.
	m.checkAll(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health monitor stopped")
			return

		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

// checkAll probes every endpoint concurrently and waits for the cycle to
// finish. One slow or failing endpoint never delays the others beyond its
// own probe timeout.
func (m *Monitor) checkAll(ctx context.Context) {
	endpoints := m.registry.All()

	var wg sync.WaitGroup
	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep registry.ServiceEndpoint) {
			defer wg.Done()
			m.probe(ctx, ep)
		}(ep)
	}

	wg.Wait()
}

func (m *Monitor) probe(ctx context.Context, ep registry.ServiceEndpoint) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	healthy, elapsed := m.check(probeCtx, ep.Address)

	changed := m.registry.SetHealth(ep.Name, healthy, elapsed)
	if !changed {
		return
	}

	if healthy {
		m.logger.Info("Service is back up",
			slog.String("service", ep.Name),
			slog.String("address", ep.Address))
	} else {
		m.logger.Warn("Service is down",
			slog.String("service", ep.Name),
			slog.String("address", ep.Address))
	}

	if m.collector != nil {
		m.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Service:   ep.Name,
			Healthy:   healthy,
		})
	}
}

// check performs one bounded-time GET against the endpoint's /health path.
// Any error, timeout or non-2xx response counts as unhealthy; nothing is
// returned to the caller beyond the verdict and the measured latency.
func (m *Monitor) check(ctx context.Context, address string) (bool, time.Duration) {
	base, err := url.Parse(address)
	if err != nil {
		return false, 0
	}

	healthURL := base.ResolveReference(&url.URL{Path: "/health"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return false, 0
	}

	start := time.Now()
	res, err := m.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		return false, elapsed
	}
	defer res.Body.Close()

	return res.StatusCode >= 200 && res.StatusCode < 300, elapsed
}
