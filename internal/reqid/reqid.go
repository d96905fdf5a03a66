// Package reqid stores a per-request correlation ID in the context, so
// event bus subscribers can stitch the events of one request together.
package reqid

import (
	"context"
	"math/rand"
)

type key struct{}

// NewContext returns a copy of parent carrying a fresh random request
// ID, and the ID itself.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int63()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx and whether one was set.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
