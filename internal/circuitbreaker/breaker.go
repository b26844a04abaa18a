package circuitbreaker

import (
	"context"
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Testing with one trial request
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Operation is the caller-supplied work a breaker wraps, typically an RPC or
// HTTP call. The context is cancelled when the operation timeout fires;
// operations that honor it stop early, operations that ignore it keep
// running but their outcome is discarded.
type Operation func(ctx context.Context) (any, error)

// Config is immutable for the lifetime of a breaker.
type Config struct {
	// FailureThreshold opens the breaker once windowFailures reaches it,
	// regardless of the failure percentage. Zero disables the rule.
	FailureThreshold int
	// ErrorThresholdPercentage opens the breaker once the window holds
	// VolumeThreshold attempts and failures reach this percentage of them.
	ErrorThresholdPercentage int
	// VolumeThreshold is the minimum sample count before the percentage
	// rule applies. An empty window never trips.
	VolumeThreshold int
	// ResetTimeout is how long the breaker stays open before the next call
	// is let through as a half-open trial.
	ResetTimeout time.Duration
	// OperationTimeout bounds each wrapped operation. Zero disables the
	// timeout race.
	OperationTimeout time.Duration
}

// DefaultConfig mirrors the config file defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:         5,
		ErrorThresholdPercentage: 50,
		VolumeThreshold:          10,
		ResetTimeout:             30 * time.Second,
		OperationTimeout:         5 * time.Second,
	}
}

// Stats is a point-in-time snapshot of a breaker.
type Stats struct {
	Service        string `json:"service"`
	State          string `json:"state"`
	WindowAttempts int    `json:"window_attempts"`
	WindowFailures int    `json:"window_failures"`
}

// CircuitBreaker guards a single logical service. All state transitions
// happen under the mutex; the wrapped operation runs outside it.
type CircuitBreaker struct {
	mutex          sync.Mutex
	service        string
	config         Config
	state          State
	windowAttempts int
	windowFailures int
	openedAt       time.Time
	trialInFlight  bool
}

func New(service string, config Config) *CircuitBreaker {
	return &CircuitBreaker{
		service: service,
		config:  config,
		state:   StateClosed,
	}
}

// admission records how a call got through the breaker, so the outcome is
// credited to the right state even if the breaker moved while the operation
// was in flight.
type admission int

const (
	admitClosed admission = iota
	admitTrial
)

// Execute runs op through the breaker. It returns the operation's result
// unchanged on success; a CircuitOpenError when rejected; an
// OperationTimeoutError when the timeout fires first; and the operation's
// own error, unwrapped, on failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) (any, error) {
	admit, err := cb.allow()
	if err != nil {
		return nil, err
	}

	result, err := cb.run(ctx, op)
	cb.record(admit, err == nil)

	if err != nil {
		return nil, err
	}

	return result, nil
}

// run races op against the operation timeout. The timer winning does not
// stop a non-cooperative operation; its eventual outcome is discarded.
func (cb *CircuitBreaker) run(ctx context.Context, op Operation) (any, error) {
	if cb.config.OperationTimeout <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := op(opCtx)
		done <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(cb.config.OperationTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result, out.err
	case <-timer.C:
		return nil, &OperationTimeoutError{Service: cb.service, Timeout: cb.config.OperationTimeout}
	}
}

func (cb *CircuitBreaker) allow() (admission, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return admitClosed, nil

	case StateOpen:
		if time.Since(cb.openedAt) >= cb.config.ResetTimeout {
			// Lazy transition: no background timer, the first call
			// past the cooldown becomes the trial.
			cb.state = StateHalfOpen
			cb.openedAt = time.Time{}
			cb.trialInFlight = true
			return admitTrial, nil
		}
		return 0, &CircuitOpenError{Service: cb.service}

	case StateHalfOpen:
		if cb.trialInFlight {
			return 0, &CircuitOpenError{Service: cb.service}
		}
		cb.trialInFlight = true
		return admitTrial, nil

	default:
		return admitClosed, nil
	}
}

func (cb *CircuitBreaker) record(admit admission, success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if admit == admitTrial {
		// A Reset may have raced the trial; its outcome no longer applies.
		if cb.state != StateHalfOpen {
			return
		}
		cb.trialInFlight = false
		if success {
			cb.close()
		} else {
			cb.open()
		}
		return
	}

	// The breaker opened (or was reset) while this call was in flight;
	// counters are frozen outside Closed.
	if cb.state != StateClosed {
		return
	}

	cb.windowAttempts++
	if !success {
		cb.windowFailures++
	}

	if cb.shouldTrip() {
		cb.open()
	}
}

func (cb *CircuitBreaker) shouldTrip() bool {
	if cb.config.FailureThreshold > 0 && cb.windowFailures >= cb.config.FailureThreshold {
		return true
	}

	if cb.windowAttempts == 0 || cb.windowAttempts < cb.config.VolumeThreshold {
		return false
	}

	percentage := float64(cb.windowFailures) / float64(cb.windowAttempts) * 100
	return percentage >= float64(cb.config.ErrorThresholdPercentage)
}

// open and close must be called under the mutex.
func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.windowAttempts = 0
	cb.windowFailures = 0
	cb.trialInFlight = false
}

func (cb *CircuitBreaker) close() {
	cb.state = StateClosed
	cb.openedAt = time.Time{}
	cb.windowAttempts = 0
	cb.windowFailures = 0
	cb.trialInFlight = false
}

// Reset forces the breaker back to Closed with zeroed counters.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.close()
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() Stats {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return Stats{
		Service:        cb.service,
		State:          cb.state.String(),
		WindowAttempts: cb.windowAttempts,
		WindowFailures: cb.windowFailures,
	}
}
