// Package resource holds the static, classified description of the entities a
// server exposes: which fields each resource has, what kind every field is,
// and which actions can be invoked against it. Schemas are built once from raw
// definitions, are immutable afterwards, and are shared freely across
// concurrent requests.
package resource

import (
	"fmt"
)

// Cardinality says whether a relationship points at one record or many.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// ActionKind classifies how an action produces its result.
type ActionKind string

const (
	// ActionGet reads a single record of the resource.
	ActionGet ActionKind = "get"
	// ActionList reads a page of records of the resource.
	ActionList ActionKind = "list"
	// ActionRun invokes a computation whose result shape is the action's
	// declared return type rather than the resource itself.
	ActionRun ActionKind = "run"
)

// Action is one invocable operation on a resource. Get and list actions
// return the resource itself; run actions return their declared type.
type Action struct {
	Name    string
	Kind    ActionKind
	Returns *TypeExpr // run actions only
}

// Schema is the classified, read-only description of one resource. Field
// order follows the definition order and is preserved through baselines and
// introspection output.
type Schema struct {
	Name    string
	Fields  []*Field
	index   map[string]int
	actions map[string]*Action
	order   []string
}

// Field is one classified field descriptor. Kind decides which of the
// remaining members carry data.
type Field struct {
	Name string
	Kind Kind

	Type         *TypeExpr      // KindSimple: attribute value type
	Returns      *TypeExpr      // calculations: declared return type
	Args         []Arg          // KindCalculationWithArgs
	AggKind      string         // aggregates: count, sum, avg, min, max, first, last, list
	Target       *TypeExpr      // KindComplexAggregate: type the nested selection is applied to
	Cardinality  Cardinality    // KindRelationship
	Destination  string         // KindRelationship, KindEmbedded: destination resource name
	IsArray      bool           // KindEmbedded
	Members      []UnionMember  // KindUnion
	Elements     []TupleElement // KindTuple
	StructFields []StructField  // KindStruct
}

// Arg is one declared argument of a calculation.
type Arg struct {
	Name    string
	Type    *TypeExpr
	Default any // applied when the client omits the argument
}

// Field returns the descriptor with the given canonical name, or nil.
func (s *Schema) Field(name string) *Field {
	if i, ok := s.index[name]; ok {
		return s.Fields[i]
	}
	return nil
}

// SimpleNames returns the baseline field set: the names of all KindSimple
// fields in declaration order. This is the default selection when a request
// names no explicit fields.
func (s *Schema) SimpleNames() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Kind == KindSimple {
			names = append(names, f.Name)
		}
	}
	return names
}

// Action returns the declared action with the given name, or nil.
func (s *Schema) Action(name string) *Action {
	return s.actions[name]
}

// ActionNames returns the declared action names in declaration order.
func (s *Schema) ActionNames() []string {
	return s.order
}

// Definition is the raw, unclassified description of a resource as collected
// from configuration. Facets on a FieldDef decide the field's kind; see
// Classify for the precedence.
type Definition struct {
	Name    string
	Fields  []FieldDef
	Actions []ActionDef
}

// FieldDef carries the raw facets of one field. At most one facet group
// should be set; when several are, classification precedence picks one.
type FieldDef struct {
	Name string

	Union    []UnionMember  // tagged union members
	Embed    *EmbedDef      // embedded sub-record
	Tuple    []TupleElement // ordered tuple elements
	Struct   []StructField  // named struct fields
	Relation *RelationDef   // relationship to another resource
	Calc     *CalcDef       // computed field
	Agg      *AggDef        // aggregate
	Type     *TypeExpr      // simple attribute value type
}

// EmbedDef describes an inline sub-record field.
type EmbedDef struct {
	Destination string
	IsArray     bool
}

// RelationDef describes a relationship field.
type RelationDef struct {
	Destination string
	Cardinality Cardinality
}

// CalcDef describes a computed field.
type CalcDef struct {
	Returns *TypeExpr
	Args    []Arg
}

// AggDef describes an aggregate field. Kinds first, last and list return
// related values and classify as complex; everything else is primitive.
type AggDef struct {
	Kind string
	Of   string // related resource, complex kinds only
}

// ActionDef describes one action of a resource definition.
type ActionDef struct {
	Name    string
	Kind    ActionKind
	Returns *TypeExpr
}

// complexAggKinds are the aggregate kinds whose result is a related record or
// list of related values rather than a single primitive.
var complexAggKinds = map[string]bool{"first": true, "last": true, "list": true}

// Classify resolves a raw field definition into a classified descriptor.
// Precedence: union, embedded, tuple, struct, relationship, calculation with
// arguments, calculation, complex aggregate, aggregate, simple.
func Classify(def FieldDef) (*Field, error) {
	f := &Field{Name: def.Name}
	switch {
	case len(def.Union) > 0:
		f.Kind = KindUnion
		f.Members = def.Union
	case def.Embed != nil:
		f.Kind = KindEmbedded
		f.Destination = def.Embed.Destination
		f.IsArray = def.Embed.IsArray
	case len(def.Tuple) > 0:
		f.Kind = KindTuple
		f.Elements = def.Tuple
	case len(def.Struct) > 0:
		f.Kind = KindStruct
		f.StructFields = def.Struct
	case def.Relation != nil:
		f.Kind = KindRelationship
		f.Destination = def.Relation.Destination
		f.Cardinality = def.Relation.Cardinality
	case def.Calc != nil && len(def.Calc.Args) > 0:
		f.Kind = KindCalculationWithArgs
		f.Returns = def.Calc.Returns
		f.Args = def.Calc.Args
	case def.Calc != nil:
		f.Kind = KindCalculation
		f.Returns = def.Calc.Returns
	case def.Agg != nil && complexAggKinds[def.Agg.Kind]:
		f.Kind = KindComplexAggregate
		f.AggKind = def.Agg.Kind
		f.Target = ResourceType(def.Agg.Of)
	case def.Agg != nil:
		f.Kind = KindAggregate
		f.AggKind = def.Agg.Kind
	case def.Type != nil:
		f.Kind = KindSimple
		f.Type = def.Type
	default:
		return nil, fmt.Errorf("field %q has no facet to classify", def.Name)
	}
	return f, nil
}

// build turns a definition into an immutable schema. Get and list actions are
// declared implicitly for every resource unless the definition overrides
// them.
func build(def *Definition) (*Schema, error) {
	s := &Schema{
		Name:    def.Name,
		index:   make(map[string]int, len(def.Fields)),
		actions: make(map[string]*Action),
	}
	for _, fd := range def.Fields {
		if _, exists := s.index[fd.Name]; exists {
			return nil, fmt.Errorf("resource %q declares field %q twice", def.Name, fd.Name)
		}
		f, err := Classify(fd)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", def.Name, err)
		}
		s.index[f.Name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
	for _, ad := range def.Actions {
		if _, exists := s.actions[ad.Name]; exists {
			return nil, fmt.Errorf("resource %q declares action %q twice", def.Name, ad.Name)
		}
		a := &Action{Name: ad.Name, Kind: ad.Kind, Returns: ad.Returns}
		s.actions[a.Name] = a
		s.order = append(s.order, a.Name)
	}
	if _, ok := s.actions["get"]; !ok {
		s.actions["get"] = &Action{Name: "get", Kind: ActionGet}
		s.order = append(s.order, "get")
	}
	if _, ok := s.actions["list"]; !ok {
		s.actions["list"] = &Action{Name: "list", Kind: ActionList}
		s.order = append(s.order, "list")
	}
	return s, nil
}
