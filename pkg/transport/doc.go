// Package transport declares the contract the device-services transport
// must satisfy: heartbeat, crash-report file service, syslog relay, and
// OS-trace relay sessions, plus the error-kind taxonomy the supervisor's
// tasks react to.
//
// The transport implementation itself (device discovery, pairing,
// authentication, the wire protocol to the device) is an external
// collaborator out of scope here; this package only models the operations
// the supervisor consumes from it, so that the supervisor's tasks and
// tests can be written against an interface instead of a concrete
// transport.
//
// # Error kinds
//
// Every error a transport operation returns should be classifiable via
// Classify into one of five kinds:
//   - ConnectLost / Timeout: transient, the task backs off and reconnects.
//   - ObjectNotFound / PermissionDenied: per-artifact, the task gives up on
//     that one artifact for the session and continues.
//   - Transport: generic fallback, treated the same as ConnectLost.
package transport
