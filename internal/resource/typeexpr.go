package resource

// TypeExprKind discriminates the shape of a TypeExpr.
type TypeExprKind string

const (
	// TypeScalar is a primitive value: string, integer, float, boolean,
	// timestamp, decimal or id.
	TypeScalar TypeExprKind = "SCALAR"
	// TypeResource is a reference to a registered resource by name.
	TypeResource TypeExprKind = "RESOURCE"
	// TypeStruct is a record with declared named fields.
	TypeStruct TypeExprKind = "STRUCT"
	// TypeTuple is an ordered fixed-size tuple with named positions.
	TypeTuple TypeExprKind = "TUPLE"
	// TypeUnion is a tagged union over named member types.
	TypeUnion TypeExprKind = "UNION"
	// TypeArray wraps an element type.
	TypeArray TypeExprKind = "ARRAY"
	// TypeGeneric is a dynamic value with no declared schema. Selections
	// against it bypass field validation.
	TypeGeneric TypeExprKind = "GENERIC"
)

// TypeExpr describes the value type of a calculation return, an aggregate
// target, a union member, a tuple element, a struct field or an action result.
type TypeExpr struct {
	Kind     TypeExprKind
	Name     string         // scalar name or referenced resource name
	Elem     *TypeExpr      // for TypeArray
	Fields   []StructField  // for TypeStruct
	Elements []TupleElement // for TypeTuple
	Members  []UnionMember  // for TypeUnion
}

// StructField is one named field of a struct type.
type StructField struct {
	Name string
	Type *TypeExpr
}

// TupleElement is one named position of a tuple type.
type TupleElement struct {
	Name string
	Type *TypeExpr
}

// UnionMember is one tagged member of a union type.
type UnionMember struct {
	Tag  string
	Type *TypeExpr
}

func ScalarType(name string) *TypeExpr   { return &TypeExpr{Kind: TypeScalar, Name: name} }
func ResourceType(name string) *TypeExpr { return &TypeExpr{Kind: TypeResource, Name: name} }
func ArrayType(elem *TypeExpr) *TypeExpr { return &TypeExpr{Kind: TypeArray, Elem: elem} }
func GenericType() *TypeExpr             { return &TypeExpr{Kind: TypeGeneric} }

func StructType(fields ...StructField) *TypeExpr {
	return &TypeExpr{Kind: TypeStruct, Fields: fields}
}

func TupleType(elements ...TupleElement) *TypeExpr {
	return &TypeExpr{Kind: TypeTuple, Elements: elements}
}

func UnionType(members ...UnionMember) *TypeExpr {
	return &TypeExpr{Kind: TypeUnion, Members: members}
}

// Reduce strips array wrappers and returns the element type. Selections are
// applied per element, so list-ness never changes how a type is processed.
func (t *TypeExpr) Reduce() *TypeExpr {
	cur := t
	for cur != nil && cur.Kind == TypeArray {
		cur = cur.Elem
	}
	return cur
}

// IsPrimitive reports whether a value of this type is complete on its own,
// with no field selection to make. Nil types count as primitive: they carry
// no declared structure to select into.
func (t *TypeExpr) IsPrimitive() bool {
	if t == nil {
		return true
	}
	return t.Reduce().Kind == TypeScalar
}

// StructField returns the declared field with the given name, or nil.
func (t *TypeExpr) StructField(name string) *StructField {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// TupleElement returns the declared element with the given name and its
// position, or nil and -1.
func (t *TypeExpr) TupleElement(name string) (*TupleElement, int) {
	for i := range t.Elements {
		if t.Elements[i].Name == name {
			return &t.Elements[i], i
		}
	}
	return nil, -1
}

// Member returns the union member with the given tag, or nil.
func (t *TypeExpr) Member(tag string) *UnionMember {
	for i := range t.Members {
		if t.Members[i].Tag == tag {
			return &t.Members[i]
		}
	}
	return nil
}
