// Package shorthand parses the compact selection string accepted as an
// alternative to the JSON selection array:
//
//	title author { name } excerpt(maxLength: 40)
//
// The grammar is the GraphQL selection set grammar, and the output is
// the equivalent raw JSON-style selection ([]any of names and one-key
// objects) that the selection normalizer consumes. Toggle modifiers
// have no shorthand spelling; requests that need them use the JSON
// form.
package shorthand

import (
	"strconv"

	"github.com/vektah/gqlparser/v2/parser"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"
)

// Parse converts a shorthand selection string to raw selection items.
// An empty string yields nil, which downstream resolves to the
// baseline selection.
func Parse(input string) ([]any, error) {
	if input == "" {
		return nil, nil
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "fields", Input: "{" + input + "}"})
	if err != nil {
		return nil, errors.Wrap(err, "parse selection")
	}
	if len(doc.Operations) != 1 {
		return nil, errors.New("selection must be a single field list")
	}
	return convertSet(doc.Operations[0].SelectionSet)
}

func convertSet(set SelectionSet) ([]any, error) {
	items := make([]any, 0, len(set))
	for _, sel := range set {
		f, ok := sel.(*Field)
		if !ok {
			return nil, errors.New("fragments are not supported in selections")
		}
		item, err := convertField(f)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func convertField(f *Field) (any, error) {
	if f.Alias != "" && f.Alias != f.Name {
		return nil, errors.Errorf("field %q: aliases are not supported in selections", f.Name)
	}
	if len(f.Directives) > 0 {
		return nil, errors.Errorf("field %q: directives are not supported in selections", f.Name)
	}

	var nested []any
	if len(f.SelectionSet) > 0 {
		var err error
		nested, err = convertSet(f.SelectionSet)
		if err != nil {
			return nil, err
		}
	}

	if len(f.Arguments) > 0 {
		args := make(map[string]any, len(f.Arguments))
		for _, a := range f.Arguments {
			v, err := convertValue(a.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q argument %q", f.Name, a.Name)
			}
			args[a.Name] = v
		}
		spec := map[string]any{"args": args}
		if nested != nil {
			spec["fields"] = nested
		}
		return map[string]any{f.Name: spec}, nil
	}

	if nested != nil {
		return map[string]any{f.Name: nested}, nil
	}
	return f.Name, nil
}

func convertValue(v *Value) (any, error) {
	switch v.Kind {
	case IntValue:
		n, err := strconv.Atoi(v.Raw)
		if err != nil {
			return nil, errors.Wrap(err, "integer value")
		}
		return n, nil
	case FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil, errors.Wrap(err, "float value")
		}
		return f, nil
	case StringValue, BlockValue, EnumValue:
		return v.Raw, nil
	case BooleanValue:
		return v.Raw == "true", nil
	case NullValue:
		return nil, nil
	case ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			cv, err := convertValue(c.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			cv, err := convertValue(c.Value)
			if err != nil {
				return nil, err
			}
			out[c.Name] = cv
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported value kind %d", v.Kind)
	}
}
