// Package selection normalizes, validates and plans client field
// selections against resource schemas.
//
// A raw selection is the JSON list a client sends with a request. The
// package turns it into two artifacts: a Projection telling the data
// source which columns to select and which computed fields to load,
// and a Template telling the extractor how to shape the fetched record
// for the response. Validation is strict: every name must resolve
// against the schema, every complex field must carry a nested
// selection, and every violation is reported as a typed *fielderr.Error
// with the dotted path of the offending field.
package selection

// Shape says how a field appeared in the raw selection.
type Shape int

const (
	// ShapeLeaf is a bare field name: "title".
	ShapeLeaf Shape = iota
	// ShapeNested is a field with a nested selection list:
	// {"author": ["name"]}.
	ShapeNested
	// ShapeLeafWithArgs is a field with an invocation object:
	// {"excerpt": {"args": {"max_length": 40}}}.
	ShapeLeafWithArgs
)

func (s Shape) String() string {
	switch s {
	case ShapeLeaf:
		return "leaf"
	case ShapeNested:
		return "nested"
	case ShapeLeafWithArgs:
		return "leaf_with_args"
	default:
		return "unknown"
	}
}

// Node is one normalized selection entry. Toggle modifiers are already
// resolved by the time nodes exist, so a node list is always an
// explicit, ordered field list.
type Node struct {
	Shape Shape
	// Name is the canonical (storage-convention) field name.
	Name string

	// Raw holds the merged, uninterpreted nested selection for
	// ShapeNested, or the invocation's fields list for
	// ShapeLeafWithArgs. It is interpreted during processing, when the
	// field's kind is known.
	Raw []any

	// Nodes is the normalized form of Raw. Normalization fills it in
	// eagerly for relationship fields, so malformed nested items are
	// rejected before any schema checks run on the outer level.
	Nodes []Node

	// Args is the raw value of the invocation's "args" key and HasArgs
	// records whether the key was present at all, so a present-but-nil
	// value can be told apart from an absent one.
	Args    any
	HasArgs bool

	// Spec is the whole invocation object, kept for error reporting.
	Spec map[string]any
}
