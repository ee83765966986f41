package pool

import "fmt"

// poolExhaustedError signals that capacity is full and no idle victim
// exists. Surfaced immediately; the caller owns backoff or queueing.
type poolExhaustedError struct{ tierID string }

func (e poolExhaustedError) Error() string {
	return "pool exhausted: no idle instance to evict for tier " + e.tierID
}

// IsExhausted reports whether err indicates a full pool with no idle victim.
func IsExhausted(err error) bool {
	_, ok := err.(poolExhaustedError)
	return ok
}

// engineLoadError signals a failed artifact-ensure or engine construction.
// Every caller waiting on the load receives the same instance of it.
type engineLoadError struct {
	tierID string
	cause  error
}

func (e engineLoadError) Error() string {
	return fmt.Sprintf("load engine for tier %s: %v", e.tierID, e.cause)
}
func (e engineLoadError) Unwrap() error { return e.cause }

// IsEngineLoad reports whether err indicates a failed engine load.
func IsEngineLoad(err error) bool {
	_, ok := err.(engineLoadError)
	return ok
}

// capabilityError signals that the resolved tier cannot serve the
// requested capabilities.
type capabilityError struct{ tierID string }

func (e capabilityError) Error() string {
	return "tier " + e.tierID + " lacks a requested capability"
}

// IsCapabilityMismatch reports whether err indicates a capability mismatch.
func IsCapabilityMismatch(err error) bool {
	_, ok := err.(capabilityError)
	return ok
}

// poolClosedError signals use after Shutdown.
type poolClosedError struct{}

func (poolClosedError) Error() string { return "pool is shut down" }

// IsClosed reports whether err indicates a shut-down pool.
func IsClosed(err error) bool {
	_, ok := err.(poolClosedError)
	return ok
}
