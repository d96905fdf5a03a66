// Package schemacfg loads resource definitions from HCL configuration
// files. One file declares any number of resource blocks:
//
//	resource "article" {
//	  attribute "title" { type = "string" }
//	  calculation "excerpt" {
//	    returns = "string"
//	    arg "max_length" {
//	      type    = "integer"
//	      default = 100
//	    }
//	  }
//	  aggregate "comment_count" { kind = "count" }
//	  relationship "author" { to = "person" }
//	  embedded "meta" { to = "article_meta" }
//	  union "payload" { member "text" { type = "string" } }
//	  tuple "coordinates" { element "lat" { type = "float" } }
//	  action "search" { kind = "list" }
//	}
//
// Types are written as strings: a scalar name (string, integer, float,
// boolean, timestamp, decimal, id), "generic", a registered resource
// name, or any of those prefixed with "[]" for an array. Structured
// types are declared with nested field blocks instead of a type
// attribute. Within a resource, baseline order is attribute declaration
// order.
package schemacfg

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/fieldgate/fieldgate/internal/resource"
)

type rootConfig struct {
	Resources []resourceBlock `hcl:"resource,block"`
}

type resourceBlock struct {
	Name          string        `hcl:"name,label"`
	Attributes    []attrBlock   `hcl:"attribute,block"`
	Calculations  []calcBlock   `hcl:"calculation,block"`
	Aggregates    []aggBlock    `hcl:"aggregate,block"`
	Relationships []relBlock    `hcl:"relationship,block"`
	Embedded      []embedBlock  `hcl:"embedded,block"`
	Unions        []unionBlock  `hcl:"union,block"`
	Tuples        []tupleBlock  `hcl:"tuple,block"`
	Structs       []structBlock `hcl:"struct,block"`
	Actions       []actionBlock `hcl:"action,block"`
}

type attrBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type calcBlock struct {
	Name    string       `hcl:"name,label"`
	Returns *string      `hcl:"returns,optional"`
	Fields  []fieldBlock `hcl:"field,block"`
	Args    []argBlock   `hcl:"arg,block"`
}

type argBlock struct {
	Name    string    `hcl:"name,label"`
	Type    string    `hcl:"type"`
	Default cty.Value `hcl:"default,optional"`
}

type aggBlock struct {
	Name string  `hcl:"name,label"`
	Kind string  `hcl:"kind"`
	Of   *string `hcl:"of,optional"`
}

type relBlock struct {
	Name        string  `hcl:"name,label"`
	To          string  `hcl:"to"`
	Cardinality *string `hcl:"cardinality,optional"`
}

type embedBlock struct {
	Name  string `hcl:"name,label"`
	To    string `hcl:"to"`
	Array *bool  `hcl:"array,optional"`
}

type unionBlock struct {
	Name    string        `hcl:"name,label"`
	Members []memberBlock `hcl:"member,block"`
}

type memberBlock struct {
	Tag    string       `hcl:"tag,label"`
	Type   *string      `hcl:"type,optional"`
	Fields []fieldBlock `hcl:"field,block"`
}

type tupleBlock struct {
	Name     string         `hcl:"name,label"`
	Elements []elementBlock `hcl:"element,block"`
}

type elementBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type structBlock struct {
	Name   string       `hcl:"name,label"`
	Fields []fieldBlock `hcl:"field,block"`
}

// fieldBlock declares one named field of a structured type. A type
// attribute and nested field blocks are mutually exclusive; nested
// blocks build an inline struct.
type fieldBlock struct {
	Name   string       `hcl:"name,label"`
	Type   *string      `hcl:"type,optional"`
	Fields []fieldBlock `hcl:"field,block"`
}

type actionBlock struct {
	Name    string       `hcl:"name,label"`
	Kind    string       `hcl:"kind"`
	Returns *string      `hcl:"returns,optional"`
	Fields  []fieldBlock `hcl:"field,block"`
}

// Load parses every .hcl file in dir (sorted by name) and returns the
// declared resource definitions.
func Load(dir string) ([]*resource.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read schema dir")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".hcl" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, errors.Errorf("no .hcl files in %s", dir)
	}

	var defs []*resource.Definition
	for _, f := range files {
		fileDefs, err := ParseFile(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// ParseFile parses one HCL schema file.
func ParseFile(path string) ([]*resource.Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parse %s: %s", path, diags.Error())
	}
	return decode(path, file.Body)
}

// Parse parses HCL schema source held in memory, for tests and tools.
func Parse(name string, src []byte) ([]*resource.Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, errors.Errorf("parse %s: %s", name, diags.Error())
	}
	return decode(name, file.Body)
}

// Register loads defs into a fresh registry and validates every
// cross-resource reference.
func Register(defs []*resource.Definition) (*resource.Registry, error) {
	reg := resource.NewRegistry()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func decode(name string, body hcl.Body) ([]*resource.Definition, error) {
	var cfg rootConfig
	if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
		return nil, errors.Errorf("decode %s: %s", name, diags.Error())
	}
	defs := make([]*resource.Definition, 0, len(cfg.Resources))
	for i := range cfg.Resources {
		def, err := buildDefinition(&cfg.Resources[i])
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s: resource %q", name, cfg.Resources[i].Name)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func buildDefinition(rb *resourceBlock) (*resource.Definition, error) {
	def := &resource.Definition{Name: rb.Name}

	for _, b := range rb.Attributes {
		t, err := parseType(b.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", b.Name)
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Type: t})
	}
	for _, b := range rb.Calculations {
		calc := &resource.CalcDef{}
		var err error
		calc.Returns, err = typeOrFields(b.Returns, b.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "calculation %q", b.Name)
		}
		for _, a := range b.Args {
			at, err := parseType(a.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "calculation %q arg %q", b.Name, a.Name)
			}
			arg := resource.Arg{Name: a.Name, Type: at}
			if !a.Default.IsNull() {
				arg.Default, err = ctyToGo(a.Default)
				if err != nil {
					return nil, errors.Wrapf(err, "calculation %q arg %q default", b.Name, a.Name)
				}
			}
			calc.Args = append(calc.Args, arg)
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Calc: calc})
	}
	for _, b := range rb.Aggregates {
		agg := &resource.AggDef{Kind: b.Kind}
		if b.Of != nil {
			agg.Of = *b.Of
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Agg: agg})
	}
	for _, b := range rb.Relationships {
		rel := &resource.RelationDef{Destination: b.To, Cardinality: resource.One}
		if b.Cardinality != nil {
			switch *b.Cardinality {
			case "one":
			case "many":
				rel.Cardinality = resource.Many
			default:
				return nil, errors.Errorf("relationship %q: cardinality must be one or many, got %q", b.Name, *b.Cardinality)
			}
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Relation: rel})
	}
	for _, b := range rb.Embedded {
		emb := &resource.EmbedDef{Destination: b.To}
		if b.Array != nil {
			emb.IsArray = *b.Array
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Embed: emb})
	}
	for _, b := range rb.Unions {
		if len(b.Members) == 0 {
			return nil, errors.Errorf("union %q declares no members", b.Name)
		}
		var members []resource.UnionMember
		for _, m := range b.Members {
			mt, err := typeOrFields(m.Type, m.Fields)
			if err != nil {
				return nil, errors.Wrapf(err, "union %q member %q", b.Name, m.Tag)
			}
			members = append(members, resource.UnionMember{Tag: m.Tag, Type: mt})
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Union: members})
	}
	for _, b := range rb.Tuples {
		if len(b.Elements) == 0 {
			return nil, errors.Errorf("tuple %q declares no elements", b.Name)
		}
		var elements []resource.TupleElement
		for _, el := range b.Elements {
			et, err := parseType(el.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "tuple %q element %q", b.Name, el.Name)
			}
			elements = append(elements, resource.TupleElement{Name: el.Name, Type: et})
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Tuple: elements})
	}
	for _, b := range rb.Structs {
		if len(b.Fields) == 0 {
			return nil, errors.Errorf("struct %q declares no fields", b.Name)
		}
		fields, err := structFields(b.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "struct %q", b.Name)
		}
		def.Fields = append(def.Fields, resource.FieldDef{Name: b.Name, Struct: fields})
	}
	for _, b := range rb.Actions {
		act := resource.ActionDef{Name: b.Name}
		switch b.Kind {
		case "get":
			act.Kind = resource.ActionGet
		case "list":
			act.Kind = resource.ActionList
		case "run":
			act.Kind = resource.ActionRun
		default:
			return nil, errors.Errorf("action %q: kind must be get, list or run, got %q", b.Name, b.Kind)
		}
		if b.Returns != nil || len(b.Fields) > 0 {
			var err error
			act.Returns, err = typeOrFields(b.Returns, b.Fields)
			if err != nil {
				return nil, errors.Wrapf(err, "action %q", b.Name)
			}
		}
		def.Actions = append(def.Actions, act)
	}
	return def, nil
}

// typeOrFields resolves the type-string / nested-field-blocks choice
// shared by calculations, union members and action returns. Neither
// present means no declared type (generic).
func typeOrFields(typ *string, fields []fieldBlock) (*resource.TypeExpr, error) {
	if typ != nil && len(fields) > 0 {
		return nil, errors.New("type and field blocks are mutually exclusive")
	}
	if typ != nil {
		return parseType(*typ)
	}
	if len(fields) > 0 {
		sf, err := structFields(fields)
		if err != nil {
			return nil, err
		}
		return &resource.TypeExpr{Kind: resource.TypeStruct, Fields: sf}, nil
	}
	return nil, nil
}

func structFields(blocks []fieldBlock) ([]resource.StructField, error) {
	var fields []resource.StructField
	for _, fb := range blocks {
		t, err := typeOrFields(fb.Type, fb.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", fb.Name)
		}
		if t == nil {
			t = resource.GenericType()
		}
		fields = append(fields, resource.StructField{Name: fb.Name, Type: t})
	}
	return fields, nil
}

var scalarNames = map[string]bool{
	"string": true, "integer": true, "float": true, "boolean": true,
	"timestamp": true, "decimal": true, "id": true,
}

// parseType resolves a type string: "[]" prefixes wrap arrays, scalar
// names map to scalars, "generic" and "any" to the dynamic type, and
// anything else is a resource reference checked at registry
// validation.
func parseType(s string) (*resource.TypeExpr, error) {
	if s == "" {
		return nil, errors.New("empty type")
	}
	if len(s) >= 2 && s[:2] == "[]" {
		elem, err := parseType(s[2:])
		if err != nil {
			return nil, err
		}
		return resource.ArrayType(elem), nil
	}
	if scalarNames[s] {
		return resource.ScalarType(s), nil
	}
	if s == "generic" || s == "any" {
		return resource.GenericType(), nil
	}
	return resource.ResourceType(s), nil
}

// ctyToGo converts an HCL attribute value to the plain Go value used
// for calculation argument defaults.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		bf := v.AsBigFloat()
		if n, acc := bf.Int64(); acc == 0 {
			return int(n), nil
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = gv
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported default value type %s", t.FriendlyName())
	}
}
