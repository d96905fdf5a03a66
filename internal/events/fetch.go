package events

import "time"

// FetchStart is emitted before calling the data source. Op is the
// source operation: "get", "list" or "run".
type FetchStart struct {
	Resource string
	Op       string
}

// FetchFinish is emitted after the data source call completes.
type FetchFinish struct {
	Resource string
	Op       string
	Err      error
	Duration time.Duration
}
