package selection

import "encoding/json"

// TemplateKind says what shape of fetched value a template applies to.
type TemplateKind int

const (
	// TemplateRecord extracts named fields from a map-shaped value.
	TemplateRecord TemplateKind = iota
	// TemplateTuple extracts positional elements from a list-shaped
	// value, surfacing them under their element names.
	TemplateTuple
	// TemplateUnion extracts a tagged value, applying the branch that
	// matches the value's tag.
	TemplateUnion
	// TemplateOpaque copies the value verbatim (after scalar
	// normalization); used for generic map fields and untyped action
	// results.
	TemplateOpaque
)

func (k TemplateKind) String() string {
	switch k {
	case TemplateRecord:
		return "record"
	case TemplateTuple:
		return "tuple"
	case TemplateUnion:
		return "union"
	case TemplateOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// EntryKind discriminates template entries.
type EntryKind int

const (
	// EntryLeaf copies one named field after scalar normalization.
	EntryLeaf EntryKind = iota
	// EntryNested applies a sub-template to one named field.
	EntryNested
	// EntryTupleLeaf copies the element at Index under Name.
	EntryTupleLeaf
	// EntryBranch handles one union member; a nil Nested template
	// copies the member value verbatim.
	EntryBranch
)

// Template drives extraction: it is the validated mirror of the client
// selection, with every name canonical and every nesting resolved
// against the schema.
type Template struct {
	Kind    TemplateKind
	Entries []Entry

	// Raw keeps the unvalidated client selection for TemplateOpaque,
	// for diagnostics only; extraction ignores it.
	Raw []any
}

// Entry is one field, element or branch of a template.
type Entry struct {
	Kind   EntryKind
	Name   string // field name, element name, or member tag
	Index  int    // EntryTupleLeaf: position in the stored tuple
	Nested *Template
}

// Branch returns the entry for a union member tag, or nil.
func (t *Template) Branch(tag string) *Entry {
	for i := range t.Entries {
		if t.Entries[i].Kind == EntryBranch && t.Entries[i].Name == tag {
			return &t.Entries[i]
		}
	}
	return nil
}

// MarshalJSON renders the template compactly for explain output: leaf
// entries as names, nested entries as single-key objects.
func (t *Template) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	if t.Kind == TemplateOpaque {
		return json.Marshal(map[string]any{"opaque": true})
	}
	out := make([]any, 0, len(t.Entries))
	for _, e := range t.Entries {
		switch e.Kind {
		case EntryLeaf:
			out = append(out, e.Name)
		case EntryNested:
			out = append(out, map[string]any{e.Name: e.Nested})
		case EntryTupleLeaf:
			out = append(out, map[string]any{e.Name: e.Index})
		case EntryBranch:
			if e.Nested == nil {
				out = append(out, e.Name)
			} else {
				out = append(out, map[string]any{e.Name: e.Nested})
			}
		}
	}
	return json.Marshal(out)
}
