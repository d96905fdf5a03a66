package selection

import (
	"fmt"
	"sort"

	"github.com/fieldgate/fieldgate/internal/fielderr"
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/resource"
)

// Processor validates selections against schemas held in a registry
// and plans projections and extraction templates from them.
type Processor struct {
	reg  *resource.Registry
	conv naming.Convention
}

func NewProcessor(reg *resource.Registry, conv naming.Convention) *Processor {
	return &Processor{reg: reg, conv: conv}
}

// Process validates a normalized selection against a schema. It
// returns the projection the data source should satisfy and the
// template the extractor applies to the fetched record.
func (p *Processor) Process(sch *resource.Schema, nodes []Node) (*Projection, *Template, error) {
	return p.processSchema(sch, nodes, nil)
}

// ProcessRaw normalizes and processes a raw selection in one step.
func (p *Processor) ProcessRaw(sch *resource.Schema, raw []any) (*Projection, *Template, error) {
	nodes, err := p.Normalize(sch, raw)
	if err != nil {
		return nil, nil, err
	}
	return p.processSchema(sch, nodes, nil)
}

// ProcessAction plans a selection against what an action returns. Get
// and list actions return the resource itself; run actions return
// their declared type, which may be another resource, a structured
// value or nothing selectable at all.
func (p *Processor) ProcessAction(sch *resource.Schema, act *resource.Action, raw []any) (*Projection, *Template, error) {
	if act.Kind != resource.ActionRun {
		return p.ProcessRaw(sch, raw)
	}
	rt := act.Returns.Reduce()
	if rt == nil || rt.Kind == resource.TypeGeneric {
		return &Projection{}, &Template{Kind: TemplateOpaque, Raw: raw}, nil
	}
	switch rt.Kind {
	case resource.TypeResource:
		dest, err := p.reg.Describe(rt.Name)
		if err != nil {
			return nil, nil, err
		}
		return p.ProcessRaw(dest, raw)
	case resource.TypeScalar:
		if len(raw) > 0 {
			return nil, nil, fielderr.InvalidFieldSelection("attribute", act.Name, nil)
		}
		return &Projection{}, &Template{Kind: TemplateOpaque}, nil
	default:
		if len(raw) == 0 {
			return nil, nil, fielderr.RequiresFieldSelection(typeKindName(rt), act.Name, nil)
		}
		tmpl, err := p.processType(rt, raw, nil)
		if err != nil {
			return nil, nil, err
		}
		return &Projection{}, tmpl, nil
	}
}

func (p *Processor) processSchema(sch *resource.Schema, nodes []Node, path fielderr.Path) (*Projection, *Template, error) {
	// Duplicates are rejected across the whole level before any name
	// is resolved, so a duplicate unknown field still reports the
	// duplication.
	if err := checkDuplicateNodes(nodes, path); err != nil {
		return nil, nil, err
	}
	proj := &Projection{Select: []string{}}
	tmpl := &Template{Kind: TemplateRecord}
	for i := range nodes {
		if err := p.processNode(sch, &nodes[i], path, proj, tmpl); err != nil {
			return nil, nil, err
		}
	}
	return proj, tmpl, nil
}

func (p *Processor) processNode(sch *resource.Schema, n *Node, path fielderr.Path, proj *Projection, tmpl *Template) error {
	fd := sch.Field(n.Name)
	if fd == nil {
		return fielderr.UnknownField(n.Name, "resource", path)
	}
	switch n.Shape {
	case ShapeNested:
		return p.processNested(fd, n, path, proj, tmpl)
	case ShapeLeafWithArgs:
		return p.processInvocation(fd, n, path, proj, tmpl)
	default:
		return p.processLeaf(fd, path, proj, tmpl)
	}
}

// processLeaf handles a bare field name. Only kinds resolving to a
// single primitive value may be selected without a nested selection.
func (p *Processor) processLeaf(fd *resource.Field, path fielderr.Path, proj *Projection, tmpl *Template) error {
	switch fd.Kind {
	case resource.KindSimple:
		proj.Select = append(proj.Select, fd.Name)
	case resource.KindCalculation:
		if needsSelection(fd.Returns) {
			return fielderr.RequiresFieldSelection(fd.Kind.String(), fd.Name, path)
		}
		proj.Load = append(proj.Load, LoadEntry{Field: fd.Name})
	case resource.KindAggregate:
		proj.Load = append(proj.Load, LoadEntry{Field: fd.Name})
	default:
		return fielderr.RequiresFieldSelection(fd.Kind.String(), fd.Name, path)
	}
	tmpl.Entries = append(tmpl.Entries, Entry{Kind: EntryLeaf, Name: fd.Name})
	return nil
}

// processNested handles a field with a nested selection list.
func (p *Processor) processNested(fd *resource.Field, n *Node, path fielderr.Path, proj *Projection, tmpl *Template) error {
	switch fd.Kind {
	case resource.KindSimple:
		return fielderr.NoNesting(fd.Name, path)
	case resource.KindAggregate:
		return fielderr.InvalidFieldSelection(fd.Kind.String(), fd.Name, path)
	case resource.KindCalculationWithArgs:
		return fielderr.CalculationRequiresArgs(fd.Name, path)
	}
	if len(n.Raw) == 0 {
		return fielderr.InvalidFieldSelection(fd.Kind.String(), fd.Name, path)
	}

	var sub *Template
	var err error
	switch fd.Kind {
	case resource.KindRelationship, resource.KindEmbedded:
		return p.processRelated(fd, n, path, proj, tmpl)
	case resource.KindCalculation:
		if fd.Returns.IsPrimitive() {
			return fielderr.InvalidFieldSelection(fd.Kind.String(), fd.Name, path)
		}
		sub, err = p.processType(fd.Returns, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		proj.Load = append(proj.Load, LoadEntry{Field: fd.Name})
	case resource.KindComplexAggregate:
		sub, err = p.processType(fd.Target, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		proj.Load = append(proj.Load, LoadEntry{Field: fd.Name})
	case resource.KindTuple:
		sub, err = p.tupleTemplate(fd.Elements, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		proj.Select = append(proj.Select, fd.Name)
	case resource.KindStruct:
		sub, err = p.structTemplate(fd.StructFields, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		proj.Select = append(proj.Select, fd.Name)
	case resource.KindUnion:
		sub, err = p.unionTemplate(fd.Members, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		proj.Select = append(proj.Select, fd.Name)
	default:
		return fielderr.InvalidFieldSelection(fd.Kind.String(), fd.Name, path)
	}
	tmpl.Entries = append(tmpl.Entries, Entry{Kind: EntryNested, Name: fd.Name, Nested: sub})
	return nil
}

// processRelated handles relationship and embedded fields. Both
// recurse into the destination schema; embedded records additionally
// appear in the select list because their data travels inline with the
// parent record.
func (p *Processor) processRelated(fd *resource.Field, n *Node, path fielderr.Path, proj *Projection, tmpl *Template) error {
	dest, err := p.reg.Describe(fd.Destination)
	if err != nil {
		return err
	}
	nodes := n.Nodes
	if nodes == nil {
		// Normalization resolves relationship selections eagerly;
		// embedded (and hand-built) nodes are resolved here.
		nodes, err = p.normalize(dest, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
	}
	subProj, subTmpl, err := p.processSchema(dest, nodes, path.Child(fd.Name))
	if err != nil {
		return err
	}
	if fd.Kind == resource.KindEmbedded {
		proj.Select = append(proj.Select, fd.Name)
	}
	entry := LoadEntry{Field: fd.Name, Nested: subProj.Load}
	proj.Load = append(proj.Load, entry)
	tmpl.Entries = append(tmpl.Entries, Entry{Kind: EntryNested, Name: fd.Name, Nested: subTmpl})
	return nil
}

// processInvocation handles the {"name": {"args": ..., "fields": ...}}
// form. Only calculations with declared arguments accept it.
func (p *Processor) processInvocation(fd *resource.Field, n *Node, path fielderr.Path, proj *Projection, tmpl *Template) error {
	if fd.Kind != resource.KindCalculationWithArgs {
		return fielderr.UnsupportedCombination(fd.Kind.String(), fd.Name, n.Spec, path)
	}
	if !n.HasArgs {
		return fielderr.CalculationRequiresArgs(fd.Name, path)
	}
	raw, ok := n.Args.(map[string]any)
	if !ok {
		return fielderr.InvalidCalculationArgs(fd.Name, path)
	}
	args := make(map[string]any, len(raw))
	for k, v := range raw {
		args[p.conv.Canonicalize(k)] = v
	}
	for _, a := range fd.Args {
		if a.Default == nil {
			continue
		}
		if _, ok := args[a.Name]; !ok {
			args[a.Name] = a.Default
		}
	}
	entry := Entry{Kind: EntryLeaf, Name: fd.Name}
	if needsSelection(fd.Returns) {
		if len(n.Raw) == 0 {
			return fielderr.RequiresFieldSelection(fd.Kind.String(), fd.Name, path)
		}
		sub, err := p.processType(fd.Returns, n.Raw, path.Child(fd.Name))
		if err != nil {
			return err
		}
		entry = Entry{Kind: EntryNested, Name: fd.Name, Nested: sub}
	}
	proj.Load = append(proj.Load, LoadEntry{Field: fd.Name, Args: args})
	tmpl.Entries = append(tmpl.Entries, entry)
	return nil
}

// processType plans a template for a selection over a declared type
// expression: the inside of a structured calculation result, a struct
// field, a union member or a complex aggregate. Only a template comes
// out; the value is produced by the data source as a whole, so there
// is no projection to plan.
func (p *Processor) processType(t *resource.TypeExpr, raw []any, path fielderr.Path) (*Template, error) {
	t = t.Reduce()
	if t == nil || t.Kind == resource.TypeGeneric {
		return &Template{Kind: TemplateOpaque, Raw: raw}, nil
	}
	switch t.Kind {
	case resource.TypeResource:
		dest, err := p.reg.Describe(t.Name)
		if err != nil {
			return nil, err
		}
		nodes, err := p.normalize(dest, raw, path)
		if err != nil {
			return nil, err
		}
		_, sub, err := p.processSchema(dest, nodes, path)
		return sub, err
	case resource.TypeStruct:
		return p.structTemplate(t.Fields, raw, path)
	case resource.TypeTuple:
		return p.tupleTemplate(t.Elements, raw, path)
	case resource.TypeUnion:
		return p.unionTemplate(t.Members, raw, path)
	default:
		return nil, fmt.Errorf("selection: type kind %q is not selectable", t.Kind)
	}
}

// tupleTemplate plans extraction for a tuple field. Tuple selections
// are plain element names; elements surface in request order under
// their names, each carrying its stored position.
func (p *Processor) tupleTemplate(elements []resource.TupleElement, raw []any, path fielderr.Path) (*Template, error) {
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fielderr.InvalidFieldType(item, path)
		}
		names = append(names, p.conv.Canonicalize(s))
	}
	if err := checkDuplicateNames(names, path); err != nil {
		return nil, err
	}
	sub := &Template{Kind: TemplateTuple}
	for _, name := range names {
		el, idx := tupleElement(elements, name)
		if el == nil {
			return nil, fielderr.UnknownField(name, "tuple", path)
		}
		sub.Entries = append(sub.Entries, Entry{Kind: EntryTupleLeaf, Name: name, Index: idx})
	}
	return sub, nil
}

func tupleElement(elements []resource.TupleElement, name string) (*resource.TupleElement, int) {
	for i := range elements {
		if elements[i].Name == name {
			return &elements[i], i
		}
	}
	return nil, -1
}

// structTemplate plans extraction for a typed struct. Struct items are
// plain names or single nested selections; toggles and invocations
// have no meaning inside a value type.
func (p *Processor) structTemplate(fields []resource.StructField, raw []any, path fielderr.Path) (*Template, error) {
	type item struct {
		name string
		list []any // nil for a bare name
	}
	var items []item
	var names []string
	for _, it := range raw {
		switch v := it.(type) {
		case string:
			name := p.conv.Canonicalize(v)
			items = append(items, item{name: name})
			names = append(names, name)
		case map[string]any:
			if len(v) == 0 {
				return nil, fielderr.InvalidFieldType(v, path)
			}
			for _, k := range sortedKeys(v) {
				name := p.conv.Canonicalize(k)
				list, ok := v[k].([]any)
				if !ok {
					return nil, fielderr.InvalidFieldType(v[k], path.Child(name))
				}
				items = append(items, item{name: name, list: list})
				names = append(names, name)
			}
		default:
			return nil, fielderr.InvalidFieldType(it, path)
		}
	}
	if err := checkDuplicateNames(names, path); err != nil {
		return nil, err
	}
	sub := &Template{Kind: TemplateRecord}
	for _, it := range items {
		sf := structField(fields, it.name)
		if sf == nil {
			return nil, fielderr.UnknownField(it.name, "typed_struct", path)
		}
		if it.list == nil {
			if needsSelection(sf.Type) {
				return nil, fielderr.RequiresFieldSelection(typeKindName(sf.Type.Reduce()), it.name, path)
			}
			sub.Entries = append(sub.Entries, Entry{Kind: EntryLeaf, Name: it.name})
			continue
		}
		if len(it.list) == 0 {
			return nil, fielderr.InvalidFieldSelection(typeKindName(sf.Type.Reduce()), it.name, path)
		}
		if sf.Type.IsPrimitive() {
			return nil, fielderr.NoNesting(it.name, path)
		}
		nested, err := p.processType(sf.Type, it.list, path.Child(it.name))
		if err != nil {
			return nil, err
		}
		sub.Entries = append(sub.Entries, Entry{Kind: EntryNested, Name: it.name, Nested: nested})
	}
	return sub, nil
}

func structField(fields []resource.StructField, name string) *resource.StructField {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

// unionTemplate plans extraction for a tagged union. Items are member
// tags, optionally carrying a nested selection for the member's value:
// ["text", {"image": ["url"]}]. A bare tag is only valid for members
// whose value is primitive.
func (p *Processor) unionTemplate(members []resource.UnionMember, raw []any, path fielderr.Path) (*Template, error) {
	type branch struct {
		tag  string
		list []any // nil for a bare tag
	}
	var branches []branch
	var tags []string
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			tag := p.conv.Canonicalize(v)
			branches = append(branches, branch{tag: tag})
			tags = append(tags, tag)
		case map[string]any:
			if len(v) != 1 {
				return nil, fielderr.InvalidUnionFieldFormat(path)
			}
			for k, sel := range v {
				list, ok := sel.([]any)
				if !ok {
					return nil, fielderr.InvalidUnionFieldFormat(path)
				}
				tag := p.conv.Canonicalize(k)
				branches = append(branches, branch{tag: tag, list: list})
				tags = append(tags, tag)
			}
		default:
			return nil, fielderr.InvalidUnionFieldFormat(path)
		}
	}
	if err := checkDuplicateNames(tags, path); err != nil {
		return nil, err
	}
	sub := &Template{Kind: TemplateUnion}
	for _, b := range branches {
		m := unionMember(members, b.tag)
		if m == nil {
			return nil, fielderr.UnknownField(b.tag, "union_attribute", path)
		}
		if b.list == nil {
			if needsSelection(m.Type) {
				return nil, fielderr.RequiresFieldSelection(typeKindName(m.Type.Reduce()), b.tag, path)
			}
			sub.Entries = append(sub.Entries, Entry{Kind: EntryBranch, Name: b.tag})
			continue
		}
		if len(b.list) == 0 {
			return nil, fielderr.InvalidFieldSelection(typeKindName(m.Type.Reduce()), b.tag, path)
		}
		if m.Type.IsPrimitive() {
			return nil, fielderr.NoNesting(b.tag, path)
		}
		nested, err := p.processType(m.Type, b.list, path.Child(b.tag))
		if err != nil {
			return nil, err
		}
		sub.Entries = append(sub.Entries, Entry{Kind: EntryBranch, Name: b.tag, Nested: nested})
	}
	return sub, nil
}

func unionMember(members []resource.UnionMember, tag string) *resource.UnionMember {
	for i := range members {
		if members[i].Tag == tag {
			return &members[i]
		}
	}
	return nil
}

func checkDuplicateNodes(nodes []Node, path fielderr.Path) error {
	seen := make(map[string]bool, len(nodes))
	for i := range nodes {
		if seen[nodes[i].Name] {
			return fielderr.DuplicateField(nodes[i].Name, path)
		}
		seen[nodes[i].Name] = true
	}
	return nil
}

func checkDuplicateNames(names []string, path fielderr.Path) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fielderr.DuplicateField(name, path)
		}
		seen[name] = true
	}
	return nil
}

// needsSelection reports whether a value of this type must carry a
// nested selection. Scalars and generic (schema-less) values do not;
// structs, tuples, unions and resource references do.
func needsSelection(t *resource.TypeExpr) bool {
	t = t.Reduce()
	if t == nil {
		return false
	}
	switch t.Kind {
	case resource.TypeScalar, resource.TypeGeneric:
		return false
	default:
		return true
	}
}

// typeKindName names a type expression's kind the way field errors
// name field kinds.
func typeKindName(t *resource.TypeExpr) string {
	if t == nil {
		return "complex_type"
	}
	switch t.Kind {
	case resource.TypeStruct:
		return "typed_struct"
	case resource.TypeTuple:
		return "tuple"
	case resource.TypeUnion:
		return "union"
	case resource.TypeResource:
		return "resource"
	default:
		return "complex_type"
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
