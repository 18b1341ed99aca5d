// Package task defines the tracked background job: its status values, the
// persisted descriptor and the invariants that every reachable descriptor
// must satisfy. It has no dependencies on storage, transport or timers so
// that every other package can share these types without import cycles.
package task
