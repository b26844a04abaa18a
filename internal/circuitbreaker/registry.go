package circuitbreaker

import "sync"

// Registry lazily creates one breaker per service name, applying per-service
// config overrides over the defaults. Breakers live for the process lifetime;
// there is no eviction.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	defaults  Config
	overrides map[string]Config
}

func NewRegistry(defaults Config) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		defaults:  defaults,
		overrides: make(map[string]Config),
	}
}

// SetOverride installs a per-service config. It only affects breakers
// created afterwards; an existing breaker keeps the config it was built with.
func (r *Registry) SetOverride(service string, config Config) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.overrides[service] = config
}

func (r *Registry) GetBreaker(service string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[service]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[service]; exists {
		return cb
	}

	config := r.defaults
	if override, ok := r.overrides[service]; ok {
		config = override
	}

	cb = New(service, config)
	r.breakers[service] = cb
	return cb
}

// Get returns an existing breaker without creating one.
func (r *Registry) Get(service string) (*CircuitBreaker, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cb, exists := r.breakers[service]
	return cb, exists
}

// ResetAll forces every breaker back to Closed with zeroed counters.
func (r *Registry) ResetAll() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
}

// Stats snapshots every breaker, keyed by service name.
func (r *Registry) Stats() map[string]Stats {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]Stats, len(r.breakers))
	for service, cb := range r.breakers {
		stats[service] = cb.Stats()
	}
	return stats
}
