package registry

import (
	"encoding/json"
	"time"
)

// Health is the last probe outcome for an endpoint.
type Health int

const (
	HealthUnknown   Health = iota // Never probed
	HealthHealthy                 // Last probe passed
	HealthUnhealthy               // Last probe failed or timed out
)

func (h Health) String() string {
	switch h {
	case HealthUnknown:
		return "UNKNOWN"
	case HealthHealthy:
		return "HEALTHY"
	case HealthUnhealthy:
		return "UNHEALTHY"
	default:
		return "UNKNOWN"
	}
}

func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Health) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "HEALTHY":
		*h = HealthHealthy
	case "UNHEALTHY":
		*h = HealthUnhealthy
	default:
		*h = HealthUnknown
	}

	return nil
}

// ServiceEndpoint is a named service address plus its last observed health.
// Health fields are replaced wholesale on every probe cycle.
type ServiceEndpoint struct {
	Name             string        `json:"name"`
	Address          string        `json:"address"`
	Health           Health        `json:"health"`
	LastCheckedAt    time.Time     `json:"last_checked_at"`
	LastResponseTime time.Duration `json:"last_response_time"`
}
