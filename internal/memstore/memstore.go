// Package memstore is the in-memory reference implementation of the
// fetch.Source boundary. It backs tests, the explain tooling and the
// fixture-driven serve mode: records are seeded up front, calculations
// and actions are registered as plain functions, and every fetch
// applies the projection the way a real data layer would, returning the
// NotLoaded sentinel for loadable fields the request did not ask for.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldgate/fieldgate/internal/fetch"
	"github.com/fieldgate/fieldgate/internal/pagination"
	"github.com/fieldgate/fieldgate/internal/resource"
	"github.com/fieldgate/fieldgate/internal/selection"
)

// CalcFunc computes one calculation field for a record. Args is nil for
// argumentless calculations.
type CalcFunc func(rec map[string]any, args map[string]any) any

// ActionFunc runs one run-kind action.
type ActionFunc func(ctx context.Context, args, record map[string]any) (any, error)

// Store holds seeded records in insertion order per resource. Seeding
// and registration happen during setup; fetches may then run
// concurrently.
type Store struct {
	reg *resource.Registry

	mu      sync.RWMutex
	records map[string][]map[string]any
	calcs   map[string]CalcFunc   // "resource.field"
	actions map[string]ActionFunc // "resource.action"
}

func New(reg *resource.Registry) *Store {
	return &Store{
		reg:     reg,
		records: make(map[string][]map[string]any),
		calcs:   make(map[string]CalcFunc),
		actions: make(map[string]ActionFunc),
	}
}

// Seed appends records for a resource. Records are stored as given;
// the caller supplies canonical field names and fetch vocabulary values
// (fetch.Tagged for unions, []any for tuples, and so on).
func (s *Store) Seed(res string, recs ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[res] = append(s.records[res], recs...)
}

// Calc registers a calculation function for a field. Stored record
// values win over registered functions, so fixtures can pin results.
func (s *Store) Calc(res, field string, fn CalcFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calcs[res+"."+field] = fn
}

// Action registers a handler for a run-kind action.
func (s *Store) Action(res, action string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[res+"."+action] = fn
}

// Get implements fetch.Source. A missing record is (nil, nil).
func (s *Store) Get(ctx context.Context, res, id string, proj *selection.Projection) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sch, err := s.reg.Describe(res)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.find(res, id)
	if rec == nil {
		return nil, nil
	}
	return s.restrict(sch, res, rec, proj), nil
}

// List implements fetch.Source. Offset plans slice the stored order by
// position; cursor plans treat record ids as the cursor space.
func (s *Store) List(ctx context.Context, res string, proj *selection.Projection, plan pagination.Plan) (fetch.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sch, err := s.reg.Describe(res)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.records[res]

	switch p := plan.(type) {
	case pagination.Offset:
		page := &fetch.OffsetPage{Limit: p.Limit, Offset: p.Offset}
		for i := p.Offset; i < len(all) && i < p.Offset+p.Limit; i++ {
			page.Results = append(page.Results, any(s.restrict(sch, res, all[i], proj)))
		}
		page.HasMore = p.Offset+p.Limit < len(all)
		if p.Count {
			n := len(all)
			page.Count = &n
		}
		return page, nil
	case pagination.Cursor:
		start, end := 0, len(all)
		if p.After != "" {
			if i := s.indexOf(all, p.After); i >= 0 {
				start = i + 1
			}
		}
		if p.Before != "" {
			if i := s.indexOf(all, p.Before); i >= 0 {
				end = i
			}
		}
		if start > end {
			start = end
		}
		page := &fetch.CursorPage{Limit: p.Limit}
		for i := start; i < end && i < start+p.Limit; i++ {
			page.Results = append(page.Results, any(s.restrict(sch, res, all[i], proj)))
		}
		page.HasMore = start+p.Limit < end
		return page, nil
	default:
		return nil, fmt.Errorf("memstore: unsupported pagination plan %T", plan)
	}
}

// Run implements fetch.Source.
func (s *Store) Run(ctx context.Context, res, action string, args, record map[string]any) (any, error) {
	s.mu.RLock()
	fn, ok := s.actions[res+"."+action]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memstore: no handler for action %s.%s", res, action)
	}
	return fn(ctx, args, record)
}

func (s *Store) find(res, id string) map[string]any {
	for _, rec := range s.records[res] {
		if rec["id"] == id {
			return rec
		}
	}
	return nil
}

func (s *Store) indexOf(recs []map[string]any, id string) int {
	for i, rec := range recs {
		if rec["id"] == id {
			return i
		}
	}
	return -1
}

// restrict builds the raw result for one record under a projection.
// Selected attributes copy through; loadable fields either materialize
// (from the stored value or a registered calculation, recursing into
// related records with their nested loads) or come back as the
// NotLoaded sentinel.
func (s *Store) restrict(sch *resource.Schema, res string, rec map[string]any, proj *selection.Projection) map[string]any {
	out := make(map[string]any)
	for _, f := range sch.Fields {
		switch f.Kind {
		case resource.KindSimple, resource.KindTuple, resource.KindStruct, resource.KindUnion:
			if proj.Selected(f.Name) {
				out[f.Name] = rec[f.Name]
			}
		case resource.KindEmbedded:
			if !proj.Selected(f.Name) {
				continue
			}
			out[f.Name] = s.related(f, rec[f.Name], proj.Entry(f.Name))
		case resource.KindRelationship:
			entry := proj.Entry(f.Name)
			if entry == nil {
				out[f.Name] = fetch.NotLoaded
				continue
			}
			out[f.Name] = s.related(f, rec[f.Name], entry)
		case resource.KindCalculation, resource.KindCalculationWithArgs, resource.KindAggregate, resource.KindComplexAggregate:
			entry := proj.Entry(f.Name)
			if entry == nil {
				out[f.Name] = fetch.NotLoaded
				continue
			}
			out[f.Name] = s.materialize(res, f, rec, entry)
		}
	}
	return out
}

// related resolves a relationship or embedded value. Stored values are
// either inline records, lists of inline records, or id references into
// the destination resource.
func (s *Store) related(f *resource.Field, v any, entry *selection.LoadEntry) any {
	dest, err := s.reg.Describe(f.Destination)
	if err != nil {
		return nil
	}
	var nested []selection.LoadEntry
	if entry != nil {
		nested = entry.Nested
	}
	one := func(v any) any {
		switch rv := v.(type) {
		case nil:
			return nil
		case map[string]any:
			return s.restrict(dest, f.Destination, rv, &selection.Projection{Select: allSelectable(dest), Load: nested})
		case string:
			rec := s.find(f.Destination, rv)
			if rec == nil {
				return nil
			}
			return s.restrict(dest, f.Destination, rec, &selection.Projection{Select: allSelectable(dest), Load: nested})
		default:
			return rv
		}
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i := range list {
			out[i] = one(list[i])
		}
		return out
	}
	return one(v)
}

// materialize produces a calculation or aggregate value: the stored
// value if the fixture pinned one, else the registered function.
func (s *Store) materialize(res string, f *resource.Field, rec map[string]any, entry *selection.LoadEntry) any {
	if v, ok := rec[f.Name]; ok {
		return v
	}
	if fn, ok := s.calcs[res+"."+f.Name]; ok {
		return fn(rec, entry.Args)
	}
	return nil
}

// allSelectable lists every attribute-carried field of a schema, so
// related records come back whole and extraction does the shaping.
func allSelectable(sch *resource.Schema) []string {
	var names []string
	for _, f := range sch.Fields {
		switch f.Kind {
		case resource.KindSimple, resource.KindTuple, resource.KindStruct, resource.KindUnion, resource.KindEmbedded:
			names = append(names, f.Name)
		}
	}
	return names
}
