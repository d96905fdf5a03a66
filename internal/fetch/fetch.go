// Package fetch declares the boundary between the selection engine and
// whatever satisfies its projections. The engine computes a Projection
// and hands it to a Source; the Source answers with raw records built
// from the vocabulary below, which the extractor then reshapes into the
// client-facing payload. Cancellation and timeouts belong to the
// Source: the engine itself never blocks.
package fetch

import (
	"context"

	"github.com/fieldgate/fieldgate/internal/pagination"
	"github.com/fieldgate/fieldgate/internal/selection"
)

// Source is the data-fetch collaborator. Implementations own all I/O
// and must honor ctx. Raw records are maps keyed by canonical field
// names; loadable fields the projection did not request should carry
// the NotLoaded sentinel rather than being absent, so the extractor can
// tell "not requested" from "requested but empty".
type Source interface {
	// Get fetches a single record by id, restricted to proj. A missing
	// record is (nil, nil), not an error.
	Get(ctx context.Context, resource, id string, proj *selection.Projection) (map[string]any, error)

	// List fetches one page of records restricted to proj, positioned
	// and sized by plan.
	List(ctx context.Context, resource string, proj *selection.Projection, plan pagination.Plan) (Page, error)

	// Run invokes a named action and returns its raw result: a record,
	// a list, a structured value or a plain scalar, depending on what
	// the action declares.
	Run(ctx context.Context, resource, action string, args, record map[string]any) (any, error)
}

// Page is one paginated result container. The concrete type encodes
// which strategy produced it.
type Page interface {
	page()
}

// OffsetPage is the container for offset-strategy results. Count is
// present only when the plan requested it.
type OffsetPage struct {
	Results []any
	Limit   int
	Offset  int
	HasMore bool
	Count   *int
}

func (*OffsetPage) page() {}

// CursorPage is the container for keyset-strategy results.
type CursorPage struct {
	Results []any
	Limit   int
	HasMore bool
}

func (*CursorPage) page() {}

// Tagged is the raw representation of a tagged-union value: the active
// member tag and its payload.
type Tagged struct {
	Tag   string
	Value any
}

// CIString is a case-insensitively compared string value. It collapses
// to a plain string on extraction.
type CIString string

// Enum is a bare enumerated value carried by its name.
type Enum string

type notLoaded struct{}

func (notLoaded) String() string { return "<not loaded>" }

type forbidden struct{}

func (forbidden) String() string { return "<forbidden>" }

// NotLoaded marks a declared loadable field the projection did not
// request. Extraction omits such fields entirely.
var NotLoaded = notLoaded{}

// Forbidden marks a field the caller may not read. Extraction surfaces
// it as an explicit null.
var Forbidden = forbidden{}

// IsNotLoaded reports whether v is the NotLoaded sentinel.
func IsNotLoaded(v any) bool {
	_, ok := v.(notLoaded)
	return ok
}

// IsForbidden reports whether v is the Forbidden sentinel.
func IsForbidden(v any) bool {
	_, ok := v.(forbidden)
	return ok
}
