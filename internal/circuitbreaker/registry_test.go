package circuitbreaker_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgegate/dispatch/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var (
		reg *circuitbreaker.Registry
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg = circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
	})

	Describe("GetBreaker", func() {
		It("should create a new breaker for an unknown service", func() {
			cb := reg.GetBreaker("user-service")
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same service", func() {
			cb1 := reg.GetBreaker("user-service")
			cb2 := reg.GetBreaker("user-service")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return different breakers for different services", func() {
			cb1 := reg.GetBreaker("user-service")
			cb2 := reg.GetBreaker("order-service")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})

		It("should build new breakers from the default config", func() {
			reg = circuitbreaker.NewRegistry(circuitbreaker.Config{
				ErrorThresholdPercentage: 50,
				VolumeThreshold:          2,
				ResetTimeout:             30 * time.Second,
			})
			cb := reg.GetBreaker("user-service")

			cb.Execute(ctx, failOp)
			cb.Execute(ctx, failOp)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should apply a per-service override", func() {
			reg.SetOverride("flaky-service", circuitbreaker.Config{
				ErrorThresholdPercentage: 50,
				VolumeThreshold:          1,
				ResetTimeout:             30 * time.Second,
			})

			cb := reg.GetBreaker("flaky-service")
			cb.Execute(ctx, failOp)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

			// Services without an override keep the defaults
			other := reg.GetBreaker("user-service")
			other.Execute(ctx, failOp)
			Expect(other.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("Get", func() {
		It("should not create a breaker", func() {
			_, exists := reg.Get("user-service")
			Expect(exists).To(BeFalse())

			reg.GetBreaker("user-service")

			cb, exists := reg.Get("user-service")
			Expect(exists).To(BeTrue())
			Expect(cb).NotTo(BeNil())
		})
	})

	Describe("ResetAll", func() {
		It("should close every breaker and zero its counters", func() {
			reg = circuitbreaker.NewRegistry(circuitbreaker.Config{
				ErrorThresholdPercentage: 50,
				VolumeThreshold:          2,
				ResetTimeout:             30 * time.Second,
			})

			cb1 := reg.GetBreaker("user-service")
			cb2 := reg.GetBreaker("order-service")
			cb1.Execute(ctx, failOp)
			cb1.Execute(ctx, failOp)
			cb2.Execute(ctx, failOp)
			Expect(cb1.State()).To(Equal(circuitbreaker.StateOpen))

			reg.ResetAll()

			Expect(cb1.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb2.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb2.Stats().WindowFailures).To(BeZero())
		})
	})

	Describe("Stats", func() {
		It("should snapshot every breaker keyed by service", func() {
			reg = circuitbreaker.NewRegistry(circuitbreaker.Config{
				ErrorThresholdPercentage: 50,
				VolumeThreshold:          2,
				ResetTimeout:             30 * time.Second,
			})

			reg.GetBreaker("user-service")
			cb := reg.GetBreaker("order-service")
			cb.Execute(ctx, failOp)
			cb.Execute(ctx, failOp)

			stats := reg.Stats()
			Expect(stats).To(HaveLen(2))
			Expect(stats["user-service"].State).To(Equal("CLOSED"))
			Expect(stats["order-service"].State).To(Equal("OPEN"))
		})
	})

	Describe("Concurrent access", func() {
		It("should hand out a single breaker under contention", func() {
			const goroutines = 100

			var wg sync.WaitGroup
			wg.Add(goroutines)

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb := reg.GetBreaker("user-service")
					Expect(cb).NotTo(BeNil())
				}()
			}

			wg.Wait()

			Expect(reg.Stats()).To(HaveLen(1))
		})
	})
})
