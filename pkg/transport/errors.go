package transport

import "errors"

// Sentinel errors a transport implementation should wrap (via errors.Join
// or fmt.Errorf("...: %w", ...)) so Classify can recognize them.
var (
	// ErrConnectLost indicates a previously-connected session dropped.
	ErrConnectLost = errors.New("transport: connection lost")

	// ErrTimeout indicates an operation did not complete in time.
	ErrTimeout = errors.New("transport: timeout")

	// ErrObjectNotFound indicates the remote path does not exist.
	ErrObjectNotFound = errors.New("transport: object not found")

	// ErrPermissionDenied indicates the remote rejected the operation.
	ErrPermissionDenied = errors.New("transport: permission denied")

	// ErrTransport is the generic transport failure kind, for errors that
	// don't fit a more specific kind above.
	ErrTransport = errors.New("transport: generic failure")
)

// Kind classifies a transport error for the reconnect/give-up logic each
// task implements.
type Kind uint8

const (
	KindConnectLost Kind = iota
	KindTimeout
	KindObjectNotFound
	KindPermissionDenied
	KindTransport
)

// String returns the kind name, used in log events.
func (k Kind) String() string {
	switch k {
	case KindConnectLost:
		return "ConnectLost"
	case KindTimeout:
		return "Timeout"
	case KindObjectNotFound:
		return "ObjectNotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// Classify maps err to its error Kind by unwrapping against the sentinel
// errors above. An err that matches none of them classifies as generic
// Transport, since every transport failure must be retryable or give-up
// able: there is no "unclassified" kind a task can act on.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrConnectLost):
		return KindConnectLost
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrObjectNotFound):
		return KindObjectNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	default:
		return KindTransport
	}
}

// IsGiveUp reports whether kind should cause the crash harvester to add
// the path to its per-session give-up set rather than retry it.
func IsGiveUp(kind Kind) bool {
	return kind == KindObjectNotFound || kind == KindPermissionDenied
}
