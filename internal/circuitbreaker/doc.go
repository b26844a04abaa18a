// Package circuitbreaker implements the per-service circuit breaker that
// protects the gateway from cascading backend failures.
//
// Each breaker is a three-state machine:
//
//   - CLOSED: normal operation, operations run and outcomes are counted
//   - OPEN: operations rejected immediately without running
//   - HALF-OPEN: a single trial operation tests whether the backend recovered
//
// A breaker opens when the rolling window holds at least VolumeThreshold
// attempts and the failure percentage reaches ErrorThresholdPercentage, or
// when windowFailures reaches FailureThreshold (if set). After ResetTimeout
// the next incoming call becomes the half-open trial; there is no background
// timer. Every operation is raced against OperationTimeout.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
//	cb := registry.GetBreaker("user-service")
//	result, err := cb.Execute(ctx, func(ctx context.Context) (any, error) {
//	    return client.Call(ctx)
//	})
package circuitbreaker
