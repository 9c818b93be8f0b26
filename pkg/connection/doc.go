// Package connection provides the reconnect vocabulary shared by the
// supervisor's tasks: a lifecycle State enum and a jittered delay
// calculator.
//
// Each task (heartbeat, crash harvester, trace streamer, archive
// backfiller) owns its own reconnect loop with its own fixed delay, per
// device-services transport semantics. This package does not impose a
// generic connect-and-retry abstraction on top of those loops: the tasks
// differ too much in shape (the heartbeat supervisor races three event
// sources, the others simply loop) for one driver to fit all of them.
// The heartbeat supervisor and the crash harvester share jitter:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
//
// so that many devices reconnecting at the same moment don't retry in
// lockstep. The trace streamer and archive backfiller sleep their fixed
// delays without jitter.
package connection
