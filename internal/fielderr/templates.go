package fielderr

import "fmt"

// Constructor helpers, one per code.
// NOTE: keep messages stable; clients and snapshot tests depend on them.

// UnknownField reports a selected name that has no descriptor in the current
// container. container names what was searched: "resource", "tuple",
// "typed_struct" or "union_attribute".
func UnknownField(name, container string, path Path) *Error {
	return &Error{
		Code:       CodeUnknownField,
		Message:    fmt.Sprintf("Unknown field %q in %s", name, container),
		Field:      name,
		Path:       path.Child(name).String(),
		Suggestion: "Check the field name against the resource schema",
	}
}

// RequiresFieldSelection reports a complex field requested without a nested
// selection. kind names the field kind that made the selection mandatory.
func RequiresFieldSelection(kind, name string, path Path) *Error {
	return &Error{
		Code:       CodeRequiresFieldSelection,
		Message:    fmt.Sprintf("Field %q is a %s and requires a nested field selection", name, kind),
		Field:      name,
		Path:       path.Child(name).String(),
		Suggestion: fmt.Sprintf("Request it as {%q: [...fields]}", name),
	}
}

// InvalidFieldSelection reports a nested selection on a field kind that can
// never carry one in that shape (for example an empty nested list on a
// relationship, or any nesting on a primitive aggregate).
func InvalidFieldSelection(kind, name string, path Path) *Error {
	return &Error{
		Code:    CodeInvalidFieldSelection,
		Message: fmt.Sprintf("Invalid selection for %s field %q", kind, name),
		Field:   name,
		Path:    path.Child(name).String(),
	}
}

// NoNesting reports a nested selection on a plain attribute.
func NoNesting(name string, path Path) *Error {
	return &Error{
		Code:       CodeNoNesting,
		Message:    fmt.Sprintf("Field %q is an attribute and does not support nesting", name),
		Field:      name,
		Path:       path.Child(name).String(),
		Suggestion: fmt.Sprintf("Request it as the plain string %q", name),
	}
}

// DuplicateField reports two sibling selection entries canonicalizing to the
// same name.
func DuplicateField(name string, path Path) *Error {
	return &Error{
		Code:    CodeDuplicateField,
		Message: fmt.Sprintf("Field %q selected more than once", name),
		Field:   name,
		Path:    path.Child(name).String(),
	}
}

// CalculationRequiresArgs reports an argument-taking calculation requested
// without an args object.
func CalculationRequiresArgs(name string, path Path) *Error {
	return &Error{
		Code:       CodeCalculationRequiresArgs,
		Message:    fmt.Sprintf("Calculation %q requires arguments", name),
		Field:      name,
		Path:       path.Child(name).String(),
		Suggestion: fmt.Sprintf("Request it as {%q: {\"args\": {...}}}", name),
	}
}

// InvalidCalculationArgs reports a calculation invocation whose args value is
// not an object.
func InvalidCalculationArgs(name string, path Path) *Error {
	return &Error{
		Code:    CodeInvalidCalculationArgs,
		Message: fmt.Sprintf("Arguments for calculation %q must be an object", name),
		Field:   name,
		Path:    path.Child(name).String(),
	}
}

// InvalidUnionFieldFormat reports a union member entry that is neither a bare
// tag string nor a single-key {tag: [...fields]} object.
func InvalidUnionFieldFormat(path Path) *Error {
	return &Error{
		Code:    CodeInvalidUnionFieldFormat,
		Message: "Union members must be tag strings or single-key {tag: [...fields]} objects",
		Path:    path.String(),
	}
}

// InvalidFieldType reports a selection item that is not a string or a nested
// object at all. It fires before duplicate and unknown-field checks.
func InvalidFieldType(value any, path Path) *Error {
	return &Error{
		Code:    CodeInvalidFieldType,
		Message: fmt.Sprintf("Invalid selection item of type %T (%v)", value, value),
		Path:    path.String(),
	}
}

// UnsupportedCombination reports a (field kind, selection shape) pairing with
// no defined meaning, such as an args object for a plain attribute.
func UnsupportedCombination(kind, name string, value any, path Path) *Error {
	return &Error{
		Code:    CodeUnsupportedCombination,
		Message: fmt.Sprintf("Field %q of kind %s cannot be combined with %v", name, kind, value),
		Field:   name,
		Path:    path.Child(name).String(),
	}
}

// InvalidPagination reports an unusable pagination request.
func InvalidPagination(reason string) *Error {
	return &Error{
		Code:    CodeInvalidPagination,
		Message: fmt.Sprintf("Invalid pagination: %s", reason),
	}
}

// UnknownResource reports a request naming a resource the registry does not
// know.
func UnknownResource(name string) *Error {
	return &Error{
		Code:    CodeUnknownResource,
		Message: fmt.Sprintf("Unknown resource %q", name),
		Field:   name,
	}
}

// UnknownAction reports a request naming an action the resource does not
// declare.
func UnknownAction(resource, action string) *Error {
	return &Error{
		Code:    CodeUnknownAction,
		Message: fmt.Sprintf("Resource %q has no action %q", resource, action),
		Field:   action,
	}
}
