package readiness

import "errors"

// ErrClosed is returned by Wait* methods when the signal has been closed
// while a waiter was blocked, or is already closed when called. Consumers
// treat it as cancellation, matching the contract in which a closed
// Readiness Signal means the supervisor is shutting down.
var ErrClosed = errors.New("readiness: signal closed")
