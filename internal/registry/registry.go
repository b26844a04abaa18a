package registry

import (
	"sync"
	"time"
)

// Registry is the owned map of service name to endpoint record. Accessors
// return copies so callers never share mutable state with the monitor.
type Registry struct {
	mutex     sync.RWMutex
	endpoints map[string]*ServiceEndpoint
	now       func() time.Time
}

func New() *Registry {
	return &Registry{
		endpoints: make(map[string]*ServiceEndpoint),
		now:       time.Now,
	}
}

// Register inserts or overwrites the endpoint for name. Health starts as
// Unknown until the monitor's first probe cycle. Idempotent.
func (r *Registry) Register(name, address string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.endpoints[name] = &ServiceEndpoint{
		Name:          name,
		Address:       address,
		Health:        HealthUnknown,
		LastCheckedAt: r.now(),
	}
}

// Unregister removes the endpoint. No-op if the name is unknown.
func (r *Registry) Unregister(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.endpoints, name)
}

func (r *Registry) Get(name string) (ServiceEndpoint, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ep, exists := r.endpoints[name]
	if !exists {
		return ServiceEndpoint{}, false
	}

	return *ep, true
}

func (r *Registry) All() []ServiceEndpoint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	all := make([]ServiceEndpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		all = append(all, *ep)
	}

	return all
}

// Healthy returns the endpoints whose last probe passed.
func (r *Registry) Healthy() []ServiceEndpoint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var healthy []ServiceEndpoint
	for _, ep := range r.endpoints {
		if ep.Health == HealthHealthy {
			healthy = append(healthy, *ep)
		}
	}

	return healthy
}

// SetHealth records a probe outcome. Returns true if the health status
// changed, false if it was already in that state or the name is unknown.
func (r *Registry) SetHealth(name string, healthy bool, responseTime time.Duration) (changed bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ep, exists := r.endpoints[name]
	if !exists {
		return false
	}

	health := HealthUnhealthy
	if healthy {
		health = HealthHealthy
	}

	changed = ep.Health != health
	ep.Health = health
	ep.LastCheckedAt = r.now()
	ep.LastResponseTime = responseTime

	return changed
}

// Len reports the number of registered endpoints.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.endpoints)
}
