// Package logging attaches a structured logger to the event bus. The
// engine and selection packages stay pure; everything observable about
// a request is logged here from the events it publishes.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/fieldgate/fieldgate/internal/eventbus"
	"github.com/fieldgate/fieldgate/internal/events"
	"github.com/fieldgate/fieldgate/internal/fielderr"
	"github.com/fieldgate/fieldgate/internal/reqid"
)

// NewLogger builds a slog.Logger from level and format configuration
// strings ("debug"/"info"/"warn"/"error", "text"/"json").
func NewLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Subscribe registers log output for request lifecycle events.
func Subscribe(log *slog.Logger) {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		log.Info("http request",
			"rid", rid,
			"method", e.Request.Method,
			"path", e.Request.URL.Path,
			"status", e.Status,
			"duration", e.Duration,
		)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.RPCFinish) {
		rid, _ := reqid.FromContext(ctx)
		attrs := []any{
			"rid", rid,
			"resource", e.Resource,
			"action", e.Action,
			"duration", e.Duration,
		}
		if e.Err != nil {
			attrs = append(attrs, "err", e.Err, "code", string(fielderr.CodeOf(e.Err)))
			log.Warn("rpc failed", attrs...)
			return
		}
		log.Info("rpc", attrs...)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.FetchFinish) {
		rid, _ := reqid.FromContext(ctx)
		if e.Err != nil {
			log.Warn("fetch failed", "rid", rid, "resource", e.Resource, "op", e.Op, "err", e.Err)
			return
		}
		log.Debug("fetch", "rid", rid, "resource", e.Resource, "op", e.Op, "duration", e.Duration)
	})
}
