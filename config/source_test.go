package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgegate/dispatch/config"
)

var _ = Describe("EnvSource", func() {
	var source *config.EnvSource

	BeforeEach(func() {
		source = config.NewEnvSource()
	})

	It("should discover services matching the naming convention", func() {
		source.Environ = func() []string {
			return []string{
				"SERVICE_USER_SERVICE_ADDR=http://users:8081",
				"SERVICE_BILLING_ADDR=http://billing:8082",
			}
		}

		services, err := source.Services()
		Expect(err).NotTo(HaveOccurred())
		Expect(services).To(HaveKeyWithValue("user-service", "http://users:8081"))
		Expect(services).To(HaveKeyWithValue("billing", "http://billing:8082"))
	})

	It("should ignore variables outside the convention", func() {
		source.Environ = func() []string {
			return []string{
				"PATH=/usr/bin",
				"SERVICE_ADDR=http://nameless:1",
				"SERVICE_USER_TIMEOUT=5s",
			}
		}

		services, err := source.Services()
		Expect(err).NotTo(HaveOccurred())
		Expect(services).To(BeEmpty())
	})

	It("should skip addresses that are not valid URLs", func() {
		source.Environ = func() []string {
			return []string{
				"SERVICE_USER_SERVICE_ADDR=users:8081",
				"SERVICE_ORDER_SERVICE_ADDR=http://orders:8082",
			}
		}

		services, err := source.Services()
		Expect(err).NotTo(HaveOccurred())
		Expect(services).To(HaveLen(1))
		Expect(services).To(HaveKey("order-service"))
	})

	It("should support a custom prefix", func() {
		source.Prefix = "BACKEND_"
		source.Environ = func() []string {
			return []string{"BACKEND_SEARCH_ADDR=http://search:9200"}
		}

		services, err := source.Services()
		Expect(err).NotTo(HaveOccurred())
		Expect(services).To(HaveKeyWithValue("search", "http://search:9200"))
	})
})

var _ = Describe("MergeServices", func() {
	It("should overlay discovered services onto the config", func() {
		cfg := &config.Config{
			Services: map[string]string{"user-service": "http://file:8081"},
		}

		err := cfg.MergeServices(config.StaticSource{
			"user-service":  "http://env:8081",
			"order-service": "http://env:8082",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Services).To(HaveKeyWithValue("user-service", "http://env:8081"))
		Expect(cfg.Services).To(HaveKeyWithValue("order-service", "http://env:8082"))
	})

	It("should initialize a nil services map", func() {
		cfg := &config.Config{}

		err := cfg.MergeServices(config.StaticSource{"billing": "http://billing:1"})

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Services).To(HaveLen(1))
	})

	It("should apply later sources over earlier ones", func() {
		cfg := &config.Config{}

		err := cfg.MergeServices(
			config.StaticSource{"billing": "http://first:1"},
			config.StaticSource{"billing": "http://second:2"},
		)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Services).To(HaveKeyWithValue("billing", "http://second:2"))
	})
})
