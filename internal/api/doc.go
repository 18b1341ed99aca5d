// Package api exposes the task tracker over HTTP. Handlers translate
// requests into Coordinator operations and render the tracked descriptor and
// the recent notification feed as JSON.
package api
