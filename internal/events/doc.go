// Package events carries user-facing notifications from the tracker to
// whatever sinks are registered, without the tracker knowing about them.
//
// The primary components are:
// - Notification: one user-facing message about a job status transition
// - Handler: interface for sinks that receive notifications
// - Emitter: interface for components that publish notifications
package events
