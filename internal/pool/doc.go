// Package pool bounds the number of simultaneously loaded model engines and
// coordinates concurrent access to them. It is structured into small files
// by concern:
//
//   - pool.go: core Pool type, constructor, status/shutdown.
//   - config.go: Config and package defaults.
//   - types.go: internal state types (State, instance, Handle).
//   - errors.go: error types and predicates (IsExhausted, IsEngineLoad, ...).
//   - acquire.go: Acquire/Release and the background load path.
//   - evict.go: LRU eviction and the idle sweep.
//   - metrics.go: prometheus counters/gauges.
//
// Coordination discipline: one pool-wide mutex guards all bookkeeping and is
// never held across a load or unload. A load reserves its slot under the
// lock, runs detached from any single caller, and publishes its outcome
// through a latch every waiter shares, so concurrent acquires of the same
// tier trigger exactly one construction and observe one outcome.
package pool
