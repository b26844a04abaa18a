package metrics_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgegate/dispatch/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		collector = metrics.NewCollector(100, log)
		ctx, cancel = context.WithCancel(context.Background())
		collector.Start(ctx)
	})

	AfterEach(func() {
		cancel()
	})

	It("should aggregate emitted events into the snapshot", func() {
		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestSuccess,
			Timestamp: time.Now(),
			Service:   "user-service",
			Duration:  15 * time.Millisecond,
		})
		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestRejected,
			Timestamp: time.Now(),
			Service:   "user-service",
		})

		Eventually(func() int64 {
			return collector.Snapshot().Services["user-service"].Successes
		}).Should(Equal(int64(1)))
		Eventually(func() int64 {
			return collector.Snapshot().Services["user-service"].Rejected
		}).Should(Equal(int64(1)))
	})

	It("should record health change events", func() {
		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Service:   "order-service",
			Healthy:   true,
		})

		Eventually(func() bool {
			return collector.Snapshot().Services["order-service"].Healthy
		}).Should(BeTrue())
	})

	It("should drop events instead of blocking when the buffer is full", func() {
		small := metrics.NewCollector(1, slog.New(slog.NewTextHandler(os.Stdout, nil)))
		// Not started: channel fills up and further emits must not block.
		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				small.Emit(metrics.MetricEvent{Type: metrics.EventRequestSuccess, Service: "s"})
			}
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})
})
