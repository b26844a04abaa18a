//go:build ignore

// Backend is a simple test HTTP server used for dispatch testing.
// It provides /work and /health endpoints and can be made flaky on demand.
//
// Usage:
//
//	go run backend.go -port 8081 -fail-rate 0.3 -latency 50ms
//
// POST /toggle flips the /health endpoint between passing and failing so
// the health monitor's transitions can be observed live.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	mathrand "math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

// newUUID generates a random v4 UUID per RFC 4122.
func newUUID() string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	// set version (4) and variant bits per RFC 4122
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	// format as hex groups
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hex.EncodeToString(b[0:4]),
		hex.EncodeToString(b[4:6]),
		hex.EncodeToString(b[6:8]),
		hex.EncodeToString(b[8:10]),
		hex.EncodeToString(b[10:16]),
	)
}

func main() {
	var (
		port     = flag.Int("port", 8081, "Port to listen on")
		failRate = flag.Float64("fail-rate", 0, "Fraction of /work requests that return 500")
		latency  = flag.Duration("latency", 0, "Artificial delay added to /work responses")
	)
	flag.Parse()

	var healthy atomic.Bool
	healthy.Store(true)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	http.HandleFunc("/toggle", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		now := !healthy.Load()
		healthy.Store(now)
		log.Printf("health toggled, healthy=%v", now)
		fmt.Fprintf(w, "healthy=%v\n", now)
	})

	http.HandleFunc("/work", func(w http.ResponseWriter, r *http.Request) {
		id := newUUID()
		log.Printf("%s %s id=%s", r.Method, r.URL.Path, id)

		if *latency > 0 {
			time.Sleep(*latency)
		}

		if mathrand.Float64() < *failRate {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "ok"})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test backend listening on %s (fail-rate=%.2f latency=%s)", addr, *failRate, *latency)
	log.Fatal(http.ListenAndServe(addr, nil))
}
