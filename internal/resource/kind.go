package resource

// Kind classifies a field of a resource schema. The set is closed: the
// selection processor dispatches on it exhaustively, so adding a kind is a
// compile-visible decision everywhere selections are interpreted.
type Kind int

const (
	// KindSimple is a plain stored attribute with a scalar value.
	KindSimple Kind = iota
	// KindCalculation is a computed field without arguments.
	KindCalculation
	// KindCalculationWithArgs is a computed field that requires an argument
	// object at request time.
	KindCalculationWithArgs
	// KindAggregate is an aggregate with a primitive result (count, sum, ...).
	KindAggregate
	// KindComplexAggregate is an aggregate returning a related field value or
	// list of values (first, last, list).
	KindComplexAggregate
	// KindRelationship points at another resource, to-one or to-many.
	KindRelationship
	// KindEmbedded is a sub-record (or array of sub-records) stored inline.
	KindEmbedded
	// KindUnion is a tagged union over named member types.
	KindUnion
	// KindTuple is an ordered fixed-size tuple with named positions.
	KindTuple
	// KindStruct is a named-field structured record.
	KindStruct
)

var kindNames = map[Kind]string{
	KindSimple:              "attribute",
	KindCalculation:         "calculation",
	KindCalculationWithArgs: "calculation_with_args",
	KindAggregate:           "aggregate",
	KindComplexAggregate:    "complex_aggregate",
	KindRelationship:        "relationship",
	KindEmbedded:            "embedded",
	KindUnion:               "union",
	KindTuple:               "tuple",
	KindStruct:              "typed_struct",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Leafable reports whether the field may be requested as a bare name without
// a nested selection: attributes, primitive calculations and primitive
// aggregates. Everything else must carry a nested selection.
func (k Kind) Leafable() bool {
	switch k {
	case KindSimple, KindCalculation, KindAggregate:
		return true
	}
	return false
}
