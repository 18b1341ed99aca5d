// Package statusapi is the HTTP client for the remote transcription status
// endpoint. Client implements tracker.Fetcher.
package statusapi
