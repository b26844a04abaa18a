// Package registry holds the in-memory map of known backend services and
// their last observed health. It performs no I/O: the health monitor writes
// probe outcomes into it, and the dispatcher and admin API read from it.
package registry
