package shorthand

import "github.com/vektah/gqlparser/v2/ast"

type (
	QueryDocument = ast.QueryDocument
	SelectionSet  = ast.SelectionSet
	Selection     = ast.Selection
	Field         = ast.Field
	Argument      = ast.Argument
	ArgumentList  = ast.ArgumentList
	Value         = ast.Value
	Position      = ast.Position
)

type ValueKind = ast.ValueKind

const (
	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	NullValue    ValueKind = ast.NullValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)
