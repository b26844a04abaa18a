//go:build ignore

// breakerdemo drives a dispatcher against a flaky backend in-process and
// prints the breaker's journey through trip, cooldown and recovery.
//
// Usage:
//
//	go run breakerdemo.go -requests 30 -fail-from 5 -recover-from 15
//
// Requests with index in [fail-from, recover-from) fail; everything else
// succeeds. Between phases the demo sleeps past the reset timeout so the
// half-open trial is visible.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/edgegate/dispatch/internal/circuitbreaker"
	"github.com/edgegate/dispatch/internal/dispatcher"
	"github.com/edgegate/dispatch/internal/registry"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func main() {
	var (
		requests    = flag.Int("requests", 30, "Total requests to dispatch")
		failFrom    = flag.Int("fail-from", 5, "First request index that fails")
		recoverFrom = flag.Int("recover-from", 15, "First request index that succeeds again")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	reg := registry.New()
	reg.Register("demo-service", "http://localhost:8081")

	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{
		ErrorThresholdPercentage: 50,
		VolumeThreshold:          5,
		ResetTimeout:             2 * time.Second,
		OperationTimeout:         time.Second,
	})

	d := dispatcher.NewDispatcher(log, reg, breakers, nil)

	for i := 0; i < *requests; i++ {
		failing := i >= *failFrom && i < *recoverFrom

		if i == *recoverFrom {
			fmt.Printf("%s--- backend recovered, waiting out the cooldown ---%s\n", colorYellow, colorReset)
			time.Sleep(2500 * time.Millisecond)
		}

		_, err := d.ExecuteRequest(context.Background(), "demo-service", func(ctx context.Context) (any, error) {
			if failing {
				return nil, errors.New("backend unavailable")
			}
			return "ok", nil
		})

		stats, _ := d.BreakerStats("demo-service")

		switch {
		case err == nil:
			fmt.Printf("%s#%02d ok%s        state=%s\n", colorGreen, i, colorReset, stats.State)
		case circuitbreaker.IsCircuitOpen(err):
			fmt.Printf("%s#%02d rejected%s  state=%s\n", colorYellow, i, colorReset, stats.State)
		default:
			fmt.Printf("%s#%02d failed%s    state=%s\n", colorRed, i, colorReset, stats.State)
		}
	}

	final, _ := d.Stats("demo-service")
	fmt.Printf("\nsuccess=%d failure=%d timeout=%d rejected=%d\n",
		final.Success, final.Failure, final.Timeout, final.Rejected)
}
