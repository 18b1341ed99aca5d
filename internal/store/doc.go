// Package store defines the durable persistence contract for the tracked
// task descriptor. The tracker depends only on DurableStore, so the same
// state logic works against a file, a SQL row or memory.
package store
