package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	successes     map[string]int64
	failures      map[string]int64
	timeouts      map[string]int64
	rejected      map[string]int64
	responseTimes map[string][]time.Duration
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                     `json:"total_requests"`
	Uptime        time.Duration             `json:"uptime"`
	Services      map[string]ServiceMetrics `json:"services"`
}

type ServiceMetrics struct {
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	Timeouts    int64         `json:"timeouts"`
	Rejected    int64         `json:"rejected"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		successes:     make(map[string]int64),
		failures:      make(map[string]int64),
		timeouts:      make(map[string]int64),
		rejected:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) RecordSuccess(service string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.successes[service]++
	m.recordResponseTime(service, duration)
}

func (m *Metrics) RecordFailure(service string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[service]++
	m.recordResponseTime(service, duration)
}

func (m *Metrics) RecordTimeout(service string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.timeouts[service]++
}

func (m *Metrics) RecordRejection(service string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rejected[service]++
}

func (m *Metrics) UpdateHealthStatus(service string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[service] = healthy
}

// recordResponseTime must be called under the mutex.
func (m *Metrics) recordResponseTime(service string, duration time.Duration) {
	if duration <= 0 {
		return
	}

	m.responseTimes[service] = append(m.responseTimes[service], duration)

	if len(m.responseTimes[service]) > 1000 {
		m.responseTimes[service] = m.responseTimes[service][1:]
	}
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:   time.Since(m.startTime),
		Services: make(map[string]ServiceMetrics),
	}

	// Collect all service names seen by any counter
	allServices := make(map[string]bool)
	for service := range m.successes {
		allServices[service] = true
	}
	for service := range m.failures {
		allServices[service] = true
	}
	for service := range m.timeouts {
		allServices[service] = true
	}
	for service := range m.rejected {
		allServices[service] = true
	}
	for service := range m.healthStatus {
		allServices[service] = true
	}

	for service := range allServices {
		sm := ServiceMetrics{
			Successes: m.successes[service],
			Failures:  m.failures[service],
			Timeouts:  m.timeouts[service],
			Rejected:  m.rejected[service],
			Healthy:   m.healthStatus[service],
		}

		snap.TotalRequests += sm.Successes + sm.Failures + sm.Timeouts + sm.Rejected

		durations := m.responseTimes[service]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			sm.AvgResponse = average(sorted)
			sm.P50Response = percentile(sorted, 0.50)
			sm.P95Response = percentile(sorted, 0.95)
			sm.P99Response = percentile(sorted, 0.99)
		}

		snap.Services[service] = sm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
