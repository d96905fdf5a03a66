// Package extract reshapes raw fetched data into the client-facing
// payload using the extraction template planned from the selection.
//
// Extraction is the inverse half of processing: the template mirrors
// the validated selection, and walking a raw value against it yields an
// object whose key set equals the requested field set at every nesting
// depth. Raw values use the vocabulary of the fetch package: records
// are maps keyed by canonical names, tuples are positional lists,
// tagged unions are fetch.Tagged values, and pages are the fetch page
// containers.
package extract

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldgate/fieldgate/internal/fetch"
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/selection"
)

// Extractor applies extraction templates. The convention decides how
// canonical field names surface in the output.
type Extractor struct {
	conv naming.Convention
}

func New(conv naming.Convention) *Extractor {
	return &Extractor{conv: conv}
}

// Extract walks raw against tmpl and returns a JSON-safe value. Lists
// and page containers apply the template per element; everything else
// dispatches on the template kind.
func (x *Extractor) Extract(raw any, tmpl *selection.Template) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case *fetch.OffsetPage:
		return x.offsetPage(v, tmpl)
	case *fetch.CursorPage:
		return x.cursorPage(v, tmpl)
	case []any:
		if tmpl != nil && tmpl.Kind == selection.TemplateTuple {
			return x.tuple(v, tmpl)
		}
		out := make([]any, len(v))
		for i := range v {
			out[i] = x.Extract(v[i], tmpl)
		}
		return out
	}
	if tmpl == nil || tmpl.Kind == selection.TemplateOpaque {
		return x.Normalize(raw)
	}
	switch tmpl.Kind {
	case selection.TemplateUnion:
		return x.union(raw, tmpl)
	default:
		if rec, ok := raw.(map[string]any); ok {
			return x.record(rec, tmpl)
		}
		// A scalar where a record was expected: surface it normalized
		// rather than dropping data.
		return x.Normalize(raw)
	}
}

// offsetPage surfaces the offset-strategy metadata alongside extracted
// results. Only the listed keys survive; anything else a source puts on
// its container is discarded.
func (x *Extractor) offsetPage(p *fetch.OffsetPage, tmpl *selection.Template) map[string]any {
	out := map[string]any{
		"type":                    "offset",
		"results":                 x.list(p.Results, tmpl),
		"limit":                   p.Limit,
		"offset":                  p.Offset,
		x.conv.Format("has_more"): p.HasMore,
	}
	if p.Count != nil {
		out["count"] = *p.Count
	}
	return out
}

func (x *Extractor) cursorPage(p *fetch.CursorPage, tmpl *selection.Template) map[string]any {
	return map[string]any{
		"type":                    "keyset",
		"results":                 x.list(p.Results, tmpl),
		"limit":                   p.Limit,
		x.conv.Format("has_more"): p.HasMore,
	}
}

func (x *Extractor) list(elems []any, tmpl *selection.Template) []any {
	out := make([]any, len(elems))
	for i := range elems {
		out[i] = x.Extract(elems[i], tmpl)
	}
	return out
}

// record copies the templated fields of one map-shaped value. A field
// carrying the NotLoaded sentinel is omitted entirely; a Forbidden
// field surfaces as an explicit null.
func (x *Extractor) record(rec map[string]any, tmpl *selection.Template) map[string]any {
	out := make(map[string]any, len(tmpl.Entries))
	for _, e := range tmpl.Entries {
		v, ok := rec[e.Name]
		if !ok || fetch.IsNotLoaded(v) {
			continue
		}
		key := x.conv.Format(e.Name)
		if fetch.IsForbidden(v) {
			out[key] = nil
			continue
		}
		switch e.Kind {
		case selection.EntryNested:
			if v == nil {
				out[key] = nil
				continue
			}
			out[key] = x.Extract(v, e.Nested)
		default:
			out[key] = x.Normalize(v)
		}
	}
	return out
}

// tuple reads elements positionally and surfaces them under their
// declared names. Positions beyond the raw tuple's length are omitted.
func (x *Extractor) tuple(raw []any, tmpl *selection.Template) map[string]any {
	out := make(map[string]any, len(tmpl.Entries))
	for _, e := range tmpl.Entries {
		if e.Index < 0 || e.Index >= len(raw) {
			continue
		}
		out[x.conv.Format(e.Name)] = x.Normalize(raw[e.Index])
	}
	return out
}

// union extracts a tagged value through the branch matching its active
// tag. A branch without a nested template copies the member payload
// verbatim (normalized). When no branch matches the active tag the
// result is an empty object: the client asked about other members, so
// there is nothing to say about this one, but the field itself was
// requested and must appear.
func (x *Extractor) union(raw any, tmpl *selection.Template) map[string]any {
	var tagged fetch.Tagged
	switch v := raw.(type) {
	case fetch.Tagged:
		tagged = v
	case *fetch.Tagged:
		if v == nil {
			return map[string]any{}
		}
		tagged = *v
	default:
		return map[string]any{}
	}
	branch := tmpl.Branch(tagged.Tag)
	if branch == nil {
		return map[string]any{}
	}
	key := x.conv.Format(tagged.Tag)
	if branch.Nested == nil {
		return map[string]any{key: x.Normalize(tagged.Value)}
	}
	return map[string]any{key: x.Extract(tagged.Value, branch.Nested)}
}

// Normalize converts storage scalar representations to their JSON-safe
// forms, recursing through untemplated maps and lists field by field.
// Keys of untemplated maps are dynamic data, not schema names, and pass
// through unconverted.
func (x *Extractor) Normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(time.RFC3339)
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return t.String()
	case fetch.CIString:
		return string(t)
	case fetch.Enum:
		return string(t)
	case fetch.Tagged:
		return map[string]any{x.conv.Format(t.Tag): x.Normalize(t.Value)}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = x.Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = x.Normalize(t[i])
		}
		return out
	default:
		return v
	}
}
