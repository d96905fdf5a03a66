package selection

import (
	"strings"

	"github.com/fieldgate/fieldgate/internal/fielderr"
	"github.com/fieldgate/fieldgate/internal/resource"
)

// Normalize resolves a raw selection list into an ordered node list.
//
// Three modes are supported and resolved in this order:
//
//   - explicit: any plain name, nested object or invocation present
//     makes the selection explicit; "+name" additions are unioned in
//     and "-name" removals are ignored.
//   - toggle-minus: only modifiers present and at least one removal;
//     the baseline (the schema's plain attributes) minus removals plus
//     additions.
//   - toggle-plus-only / empty: the baseline plus additions. A nil or
//     empty selection therefore yields the baseline untouched.
//
// Nested selections under relationship fields are normalized
// recursively against the destination schema, so a malformed item
// anywhere in the tree fails before field-level validation starts.
func (p *Processor) Normalize(sch *resource.Schema, raw []any) ([]Node, error) {
	return p.normalize(sch, raw, nil)
}

func (p *Processor) normalize(sch *resource.Schema, raw []any, path fielderr.Path) ([]Node, error) {
	var (
		entries   []Node
		nestedIdx = map[string]int{}
		additions []string
		added     = map[string]bool{}
		removals  = map[string]bool{}
	)

	for _, item := range raw {
		switch v := item.(type) {
		case string:
			switch {
			case strings.HasPrefix(v, "-"):
				removals[p.conv.Canonicalize(v[1:])] = true
			case strings.HasPrefix(v, "+"):
				name := p.conv.Canonicalize(v[1:])
				if !added[name] {
					added[name] = true
					additions = append(additions, name)
				}
			default:
				entries = append(entries, Node{Shape: ShapeLeaf, Name: p.conv.Canonicalize(v)})
			}
		case map[string]any:
			if len(v) == 0 {
				return nil, fielderr.InvalidFieldType(v, path)
			}
			// Multi-key objects are expanded in sorted key order so
			// the result does not depend on map iteration.
			for _, k := range sortedKeys(v) {
				name := p.conv.Canonicalize(k)
				node, err := p.normalizeEntry(name, v[k], path)
				if err != nil {
					return nil, err
				}
				if node.Shape == ShapeNested {
					// Repeated nested objects for the same field merge
					// by concatenating their raw lists.
					if i, ok := nestedIdx[name]; ok {
						entries[i].Raw = append(entries[i].Raw, node.Raw...)
						continue
					}
					nestedIdx[name] = len(entries)
				}
				entries = append(entries, node)
			}
		default:
			return nil, fielderr.InvalidFieldType(item, path)
		}
	}

	var nodes []Node
	named := map[string]bool{}
	if len(entries) > 0 {
		nodes = entries
		for _, e := range entries {
			named[e.Name] = true
		}
	} else {
		for _, base := range sch.SimpleNames() {
			if removals[base] {
				continue
			}
			nodes = append(nodes, Node{Shape: ShapeLeaf, Name: base})
			named[base] = true
		}
	}
	for _, name := range additions {
		if named[name] {
			continue
		}
		nodes = append(nodes, Node{Shape: ShapeLeaf, Name: name})
		named[name] = true
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Shape != ShapeNested || len(n.Raw) == 0 {
			continue
		}
		fd := sch.Field(n.Name)
		if fd == nil || fd.Kind != resource.KindRelationship {
			continue
		}
		dest, err := p.reg.Describe(fd.Destination)
		if err != nil {
			return nil, err
		}
		sub, err := p.normalize(dest, n.Raw, path.Child(n.Name))
		if err != nil {
			return nil, err
		}
		n.Nodes = sub
	}
	return nodes, nil
}

// normalizeEntry interprets one key/value pair of a selection object.
// An array value is a nested selection, an object value is an
// invocation, anything else is malformed.
func (p *Processor) normalizeEntry(name string, value any, path fielderr.Path) (Node, error) {
	switch v := value.(type) {
	case []any:
		raw := make([]any, len(v))
		copy(raw, v)
		return Node{Shape: ShapeNested, Name: name, Raw: raw}, nil
	case map[string]any:
		node := Node{Shape: ShapeLeafWithArgs, Name: name, Spec: v}
		if args, ok := v["args"]; ok {
			node.HasArgs = true
			node.Args = args
		}
		// The nested selection key is spelled "fields" or "select";
		// naming both is malformed.
		fields, hasFields := v["fields"]
		sel, hasSelect := v["select"]
		if hasFields && hasSelect {
			return Node{}, fielderr.InvalidFieldType(v, path.Child(name))
		}
		if hasSelect {
			fields, hasFields = sel, true
		}
		if hasFields {
			list, ok := fields.([]any)
			if !ok {
				return Node{}, fielderr.InvalidFieldType(fields, path.Child(name))
			}
			node.Raw = list
		}
		return node, nil
	default:
		return Node{}, fielderr.InvalidFieldType(value, path.Child(name))
	}
}
