package config

import (
	"os"
	"strings"
)

// ServiceSource discovers service name to address pairs from somewhere other
// than the config file, e.g. environment variables injected by an
// orchestrator. Implementations must be safe to call repeatedly.
type ServiceSource interface {
	Services() (map[string]string, error)
}

// EnvSource discovers services from environment variables following the
// SERVICE_<NAME>_ADDR naming convention. <NAME> is lowercased and its
// underscores become hyphens, so SERVICE_USER_SERVICE_ADDR=http://users:8081
// registers "user-service" at http://users:8081.
type EnvSource struct {
	Prefix  string
	Suffix  string
	Environ func() []string
}

// NewEnvSource returns an EnvSource with the default naming convention,
// reading from the process environment.
func NewEnvSource() *EnvSource {
	return &EnvSource{
		Prefix:  "SERVICE_",
		Suffix:  "_ADDR",
		Environ: os.Environ,
	}
}

func (s *EnvSource) Services() (map[string]string, error) {
	environ := s.Environ
	if environ == nil {
		environ = os.Environ
	}

	services := make(map[string]string)

	for _, entry := range environ() {
		key, value, found := strings.Cut(entry, "=")
		if !found || value == "" {
			continue
		}

		if !strings.HasPrefix(key, s.Prefix) || !strings.HasSuffix(key, s.Suffix) {
			continue
		}

		name := strings.TrimSuffix(strings.TrimPrefix(key, s.Prefix), s.Suffix)
		if name == "" {
			continue
		}

		name = strings.ToLower(strings.ReplaceAll(name, "_", "-"))
		if err := validateServiceAddress(value); err != nil {
			continue
		}

		services[name] = value
	}

	return services, nil
}

// StaticSource serves a fixed service map. Useful in tests and for feeding
// the config file's services section through the same merge path.
type StaticSource map[string]string

func (s StaticSource) Services() (map[string]string, error) {
	services := make(map[string]string, len(s))
	for name, address := range s {
		services[name] = address
	}
	return services, nil
}

// MergeServices overlays each source onto the config's service map in order;
// later sources win on name collisions. Source errors abort the merge.
func (c *Config) MergeServices(sources ...ServiceSource) error {
	if c.Services == nil {
		c.Services = make(map[string]string)
	}

	for _, source := range sources {
		discovered, err := source.Services()
		if err != nil {
			return err
		}
		for name, address := range discovered {
			c.Services[name] = address
		}
	}

	return nil
}
