// Package introspect renders the registered schemas as a JSON-safe
// catalog: every resource, its classified fields and its actions. The
// catalog backs the GET /schema endpoint and the describe command, so
// clients can discover what is selectable without reading server
// configuration.
package introspect

import (
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/resource"
)

// Catalog describes every resource in the registry. Field and member
// names surface in the wire convention.
func Catalog(reg *resource.Registry, conv naming.Convention) (map[string]any, error) {
	resources := make([]any, 0)
	for _, name := range reg.Names() {
		sch, err := reg.Describe(name)
		if err != nil {
			return nil, err
		}
		resources = append(resources, describeSchema(sch, conv))
	}
	return map[string]any{"resources": resources}, nil
}

func describeSchema(sch *resource.Schema, conv naming.Convention) map[string]any {
	fields := make([]any, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		fields = append(fields, describeField(f, conv))
	}
	actions := make([]any, 0)
	for _, name := range sch.ActionNames() {
		a := sch.Action(name)
		desc := map[string]any{
			"name": conv.Format(a.Name),
			"kind": string(a.Kind),
		}
		if a.Returns != nil {
			desc["returns"] = describeType(a.Returns, conv)
		}
		actions = append(actions, desc)
	}
	return map[string]any{
		"name":    sch.Name,
		"fields":  fields,
		"actions": actions,
	}
}

func describeField(f *resource.Field, conv naming.Convention) map[string]any {
	out := map[string]any{
		"name":     conv.Format(f.Name),
		"kind":     f.Kind.String(),
		"leafable": f.Kind.Leafable(),
	}
	switch f.Kind {
	case resource.KindSimple:
		out["type"] = describeType(f.Type, conv)
	case resource.KindCalculation:
		if f.Returns != nil {
			out["returns"] = describeType(f.Returns, conv)
		}
	case resource.KindCalculationWithArgs:
		if f.Returns != nil {
			out["returns"] = describeType(f.Returns, conv)
		}
		args := make([]any, 0, len(f.Args))
		for _, a := range f.Args {
			arg := map[string]any{
				"name": conv.Format(a.Name),
				"type": describeType(a.Type, conv),
			}
			if a.Default != nil {
				arg["default"] = a.Default
			}
			args = append(args, arg)
		}
		out["args"] = args
	case resource.KindAggregate:
		out["aggregate"] = f.AggKind
	case resource.KindComplexAggregate:
		out["aggregate"] = f.AggKind
		out["target"] = describeType(f.Target, conv)
	case resource.KindRelationship:
		out["destination"] = f.Destination
		out["cardinality"] = f.Cardinality.String()
	case resource.KindEmbedded:
		out["destination"] = f.Destination
		out["array"] = f.IsArray
	case resource.KindUnion:
		members := make([]any, 0, len(f.Members))
		for _, m := range f.Members {
			members = append(members, map[string]any{
				"tag":  conv.Format(m.Tag),
				"type": describeType(m.Type, conv),
			})
		}
		out["members"] = members
	case resource.KindTuple:
		elements := make([]any, 0, len(f.Elements))
		for _, e := range f.Elements {
			elements = append(elements, map[string]any{
				"name": conv.Format(e.Name),
				"type": describeType(e.Type, conv),
			})
		}
		out["elements"] = elements
	case resource.KindStruct:
		out["fields"] = describeStructFields(f.StructFields, conv)
	}
	return out
}

func describeStructFields(fields []resource.StructField, conv naming.Convention) []any {
	out := make([]any, 0, len(fields))
	for _, sf := range fields {
		out = append(out, map[string]any{
			"name": conv.Format(sf.Name),
			"type": describeType(sf.Type, conv),
		})
	}
	return out
}

func describeType(t *resource.TypeExpr, conv naming.Convention) any {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case resource.TypeScalar:
		return t.Name
	case resource.TypeGeneric:
		return "generic"
	case resource.TypeResource:
		return map[string]any{"resource": t.Name}
	case resource.TypeArray:
		return map[string]any{"array": describeType(t.Elem, conv)}
	case resource.TypeStruct:
		return map[string]any{"struct": describeStructFields(t.Fields, conv)}
	case resource.TypeTuple:
		elements := make([]any, 0, len(t.Elements))
		for _, e := range t.Elements {
			elements = append(elements, map[string]any{
				"name": conv.Format(e.Name),
				"type": describeType(e.Type, conv),
			})
		}
		return map[string]any{"tuple": elements}
	case resource.TypeUnion:
		members := make([]any, 0, len(t.Members))
		for _, m := range t.Members {
			members = append(members, map[string]any{
				"tag":  conv.Format(m.Tag),
				"type": describeType(m.Type, conv),
			})
		}
		return map[string]any{"union": members}
	default:
		return nil
	}
}
