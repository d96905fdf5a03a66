// Package engine drives one RPC request end to end: resolve the
// resource and action, normalize and process the field selection,
// resolve pagination for list reads, fetch through the data source,
// and extract the raw result into the response payload.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/fieldgate/fieldgate/internal/eventbus"
	"github.com/fieldgate/fieldgate/internal/events"
	"github.com/fieldgate/fieldgate/internal/extract"
	"github.com/fieldgate/fieldgate/internal/fetch"
	"github.com/fieldgate/fieldgate/internal/fielderr"
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/pagination"
	"github.com/fieldgate/fieldgate/internal/resource"
	"github.com/fieldgate/fieldgate/internal/selection"
)

// Request is one decoded RPC entry.
type Request struct {
	Resource string
	Action   string
	ID       string
	Fields   []any
	Page     map[string]any
	Args     map[string]any
	Record   map[string]any
}

// Engine executes requests against a registry and a data source.
// It is safe for concurrent use.
type Engine struct {
	reg  *resource.Registry
	src  fetch.Source
	conv naming.Convention
	proc *selection.Processor
	ext  *extract.Extractor
}

type Option func(*Engine)

// WithConvention overrides the wire naming convention. The default is
// camelCase.
func WithConvention(conv naming.Convention) Option {
	return func(e *Engine) { e.conv = conv }
}

func New(reg *resource.Registry, src fetch.Source, opts ...Option) *Engine {
	e := &Engine{reg: reg, src: src, conv: naming.CamelCase}
	for _, f := range opts {
		f(e)
	}
	e.proc = selection.NewProcessor(reg, e.conv)
	e.ext = extract.New(e.conv)
	return e
}

// Convention returns the engine's wire naming convention.
func (e *Engine) Convention() naming.Convention { return e.conv }

// Registry returns the engine's resource registry.
func (e *Engine) Registry() *resource.Registry { return e.reg }

// Execute runs one request. Every returned error is either a
// *fielderr.Error describing a client input problem or a source
// failure; neither is fatal for the process.
func (e *Engine) Execute(ctx context.Context, req Request) (any, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.RPCStart{Resource: req.Resource, Action: req.Action})
	out, err := e.execute(ctx, req)
	eventbus.Publish(ctx, events.RPCFinish{
		Resource: req.Resource,
		Action:   req.Action,
		Err:      err,
		Duration: time.Since(start),
	})
	return out, err
}

func (e *Engine) execute(ctx context.Context, req Request) (any, error) {
	sch, err := e.reg.Describe(e.conv.Canonicalize(req.Resource))
	if err != nil {
		if errors.Is(err, resource.ErrUnknownResource) {
			return nil, fielderr.UnknownResource(req.Resource)
		}
		return nil, err
	}
	act := sch.Action(e.conv.Canonicalize(req.Action))
	if act == nil {
		return nil, fielderr.UnknownAction(req.Resource, req.Action)
	}

	proj, tmpl, err := e.proc.ProcessAction(sch, act, req.Fields)
	if err != nil {
		return nil, err
	}

	switch act.Kind {
	case resource.ActionGet:
		rec, err := e.fetchGet(ctx, sch.Name, req.ID, proj)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		return e.ext.Extract(rec, tmpl), nil

	case resource.ActionList:
		plan, err := pagination.Resolve(e.canonicalPage(req.Page))
		if err != nil {
			return nil, err
		}
		page, err := e.fetchList(ctx, sch.Name, proj, plan)
		if err != nil {
			return nil, err
		}
		return e.ext.Extract(page, tmpl), nil

	default:
		raw, err := e.fetchRun(ctx, sch.Name, act.Name, e.canonicalArgs(req.Args), req.Record)
		if err != nil {
			return nil, err
		}
		return e.ext.Extract(raw, tmpl), nil
	}
}

func (e *Engine) fetchGet(ctx context.Context, res, id string, proj *selection.Projection) (map[string]any, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.FetchStart{Resource: res, Op: "get"})
	rec, err := e.src.Get(ctx, res, id, proj)
	eventbus.Publish(ctx, events.FetchFinish{Resource: res, Op: "get", Err: err, Duration: time.Since(start)})
	return rec, err
}

func (e *Engine) fetchList(ctx context.Context, res string, proj *selection.Projection, plan pagination.Plan) (fetch.Page, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.FetchStart{Resource: res, Op: "list"})
	page, err := e.src.List(ctx, res, proj, plan)
	eventbus.Publish(ctx, events.FetchFinish{Resource: res, Op: "list", Err: err, Duration: time.Since(start)})
	return page, err
}

func (e *Engine) fetchRun(ctx context.Context, res, action string, args, record map[string]any) (any, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.FetchStart{Resource: res, Op: "run"})
	raw, err := e.src.Run(ctx, res, action, args, record)
	eventbus.Publish(ctx, events.FetchFinish{Resource: res, Op: "run", Err: err, Duration: time.Since(start)})
	return raw, err
}

// canonicalPage converts wire pagination keys to canonical names. The
// known keys are single words in both conventions, so this only
// matters for custom source extensions, but it keeps the whole request
// surface on one convention.
func (e *Engine) canonicalPage(page map[string]any) map[string]any {
	return e.canonicalArgs(page)
}

func (e *Engine) canonicalArgs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[e.conv.Canonicalize(k)] = v
	}
	return out
}
