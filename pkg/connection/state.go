package connection

// State represents the lifecycle state of a task's connection to its
// device-services transport. The heartbeat supervisor reports these in its
// state-change log events; the other tasks do not log State values.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates the task is waiting out its reconnect
	// delay before the next connection attempt.
	StateReconnecting

	// StateOptimisticReady indicates the heartbeat supervisor's soft-timeout
	// elapsed before connect returned and the Readiness Signal was raised
	// anyway, ahead of the connection actually completing.
	StateOptimisticReady

	// StateClosed indicates the owning task has stopped for good (context
	// cancellation), not a transient disconnect.
	StateClosed
)

// String returns a human-readable state name, used in log events.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateOptimisticReady:
		return "OPTIMISTIC_READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
