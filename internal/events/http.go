// Package events declares the typed events published on the process
// event bus. Subscribers (tracing, logging) pick the ones they care
// about; publishers never know who is listening.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received. The context
// passed alongside carries the request ID.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
