// Package tracker follows a single long-running remote job until it reaches
// a terminal status.
//
// A StateStore holds the tracked Descriptor and writes every change through
// to a store.DurableStore. A Coordinator owns the polling timer: it asks a
// Fetcher for the job status, writes the result into the StateStore and
// clears the polling flag a grace period after the job finishes. A Notifier
// observes the StateStore and emits one notification per real status
// transition. Recover restarts the Coordinator at boot when the durable
// snapshot shows an unresolved job.
//
// Timers go through the Clock interface so tests can drive time with a
// ManualClock instead of sleeping.
package tracker
