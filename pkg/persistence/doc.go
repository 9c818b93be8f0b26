// Package persistence provides generic JSON file persistence for per-device
// supervisor state (known-set, heartbeat timestamp, coverage set).
//
// Each subsystem owns one file and one Go type; Store[T] only knows how to
// read/write the file. Concurrent access to the in-memory state is the
// caller's concern (the Coverage Set guards its own state with a lock; the
// Known-Set and the heartbeat timestamp each have a single writer); Store
// itself holds a mutex across each Load, Save and Clear.
package persistence
