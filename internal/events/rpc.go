package events

import "time"

// RPCStart is emitted before executing one RPC request against the
// engine. A batch emits one pair per entry.
type RPCStart struct {
	Resource string
	Action   string
}

// RPCFinish is emitted after executing one RPC request.
type RPCFinish struct {
	Resource string
	Action   string
	Err      error
	Duration time.Duration
}
