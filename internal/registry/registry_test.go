package registry_test

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgegate/dispatch/internal/registry"
)

func TestRegistry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registry Suite")
}

var _ = Describe("Registry", func() {
	var reg *registry.Registry

	BeforeEach(func() {
		reg = registry.New()
	})

	Describe("Register", func() {
		It("should insert an endpoint with unknown health", func() {
			reg.Register("user-service", "http://localhost:8081")

			ep, ok := reg.Get("user-service")
			Expect(ok).To(BeTrue())
			Expect(ep.Address).To(Equal("http://localhost:8081"))
			Expect(ep.Health).To(Equal(registry.HealthUnknown))
			Expect(ep.LastCheckedAt).NotTo(BeZero())
		})

		It("should overwrite an existing endpoint", func() {
			reg.Register("user-service", "http://localhost:8081")
			reg.SetHealth("user-service", true, 10*time.Millisecond)

			reg.Register("user-service", "http://localhost:9091")

			ep, _ := reg.Get("user-service")
			Expect(ep.Address).To(Equal("http://localhost:9091"))
			Expect(ep.Health).To(Equal(registry.HealthUnknown))
		})

		It("should keep at most one endpoint per name", func() {
			reg.Register("user-service", "http://localhost:8081")
			reg.Register("user-service", "http://localhost:8082")

			Expect(reg.All()).To(HaveLen(1))
		})
	})

	Describe("Unregister", func() {
		It("should remove the endpoint", func() {
			reg.Register("user-service", "http://localhost:8081")
			reg.Unregister("user-service")

			_, ok := reg.Get("user-service")
			Expect(ok).To(BeFalse())
		})

		It("should be a no-op for unknown names", func() {
			Expect(func() { reg.Unregister("ghost") }).NotTo(Panic())
		})
	})

	Describe("SetHealth", func() {
		BeforeEach(func() {
			reg.Register("user-service", "http://localhost:8081")
		})

		It("should mark an endpoint healthy with its response time", func() {
			changed := reg.SetHealth("user-service", true, 12*time.Millisecond)

			Expect(changed).To(BeTrue())
			ep, _ := reg.Get("user-service")
			Expect(ep.Health).To(Equal(registry.HealthHealthy))
			Expect(ep.LastResponseTime).To(Equal(12 * time.Millisecond))
		})

		It("should report unchanged status", func() {
			reg.SetHealth("user-service", false, 0)
			changed := reg.SetHealth("user-service", false, 0)

			Expect(changed).To(BeFalse())
		})

		It("should replace health on every write", func() {
			reg.SetHealth("user-service", false, 0)
			reg.SetHealth("user-service", true, 5*time.Millisecond)

			ep, _ := reg.Get("user-service")
			Expect(ep.Health).To(Equal(registry.HealthHealthy))
		})

		It("should ignore unknown names", func() {
			Expect(reg.SetHealth("ghost", true, 0)).To(BeFalse())
		})
	})

	Describe("Healthy", func() {
		It("should return only endpoints whose last probe passed", func() {
			reg.Register("a", "http://localhost:1")
			reg.Register("b", "http://localhost:2")
			reg.Register("c", "http://localhost:3")
			reg.SetHealth("a", true, 0)
			reg.SetHealth("b", false, 0)

			healthy := reg.Healthy()
			Expect(healthy).To(HaveLen(1))
			Expect(healthy[0].Name).To(Equal("a"))
		})

		It("should always be a subset of All by name", func() {
			reg.Register("a", "http://localhost:1")
			reg.Register("b", "http://localhost:2")
			reg.SetHealth("a", true, 0)
			reg.SetHealth("b", true, 0)
			reg.Unregister("b")

			allNames := make(map[string]bool)
			for _, ep := range reg.All() {
				allNames[ep.Name] = true
			}
			for _, ep := range reg.Healthy() {
				Expect(allNames).To(HaveKey(ep.Name))
			}
		})
	})

	Describe("Concurrent access", func() {
		It("should handle concurrent registration and health writes", func() {
			const goroutines = 50

			var wg sync.WaitGroup
			wg.Add(goroutines * 2)

			reg.Register("user-service", "http://localhost:8081")

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					reg.Register("user-service", "http://localhost:8081")
				}()
				go func(healthy bool) {
					defer wg.Done()
					reg.SetHealth("user-service", healthy, time.Millisecond)
				}(i%2 == 0)
			}

			wg.Wait()

			Expect(reg.Len()).To(Equal(1))
		})
	})
})
