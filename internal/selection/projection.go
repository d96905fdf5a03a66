package selection

import "encoding/json"

// Projection is the data-source-facing half of a processed selection:
// which stored attributes to select and which computed or related
// fields to load.
type Projection struct {
	Select []string    `json:"select"`
	Load   []LoadEntry `json:"load,omitempty"`
}

// LoadEntry names one field the data source must materialize beyond
// plain attribute selection: a calculation, an aggregate, a
// relationship or an embedded record. Nested entries carry the loads
// required inside a related or embedded record.
type LoadEntry struct {
	Field  string
	Args   map[string]any
	Nested []LoadEntry
}

// MarshalJSON renders a bare field load as its name alone, so
// projections stay readable in logs and explain output.
func (e LoadEntry) MarshalJSON() ([]byte, error) {
	if e.Args == nil && len(e.Nested) == 0 {
		return json.Marshal(e.Field)
	}
	obj := map[string]any{"field": e.Field}
	if e.Args != nil {
		obj["args"] = e.Args
	}
	if len(e.Nested) > 0 {
		obj["load"] = e.Nested
	}
	return json.Marshal(obj)
}

// Entry returns the load entry for a field, or nil.
func (p *Projection) Entry(field string) *LoadEntry {
	for i := range p.Load {
		if p.Load[i].Field == field {
			return &p.Load[i]
		}
	}
	return nil
}

// Selected reports whether a stored attribute is part of the
// projection's select list.
func (p *Projection) Selected(field string) bool {
	for _, s := range p.Select {
		if s == field {
			return true
		}
	}
	return false
}
