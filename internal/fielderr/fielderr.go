// Package fielderr defines the typed validation errors produced while
// normalizing and processing field selections. Every error carries a stable
// machine-readable code, a human message, and the dotted path of the offending
// field. All of them describe client input problems: they are terminal for the
// request that produced them and never fatal for the process.
package fielderr

import (
	"fmt"
	"strings"
)

// Code is a stable machine-readable error code. Codes are part of the wire
// contract; changing one breaks clients that dispatch on it.
type Code string

const (
	CodeUnknownField              Code = "unknown_field"
	CodeRequiresFieldSelection    Code = "requires_field_selection"
	CodeInvalidFieldSelection     Code = "invalid_field_selection"
	CodeNoNesting                 Code = "field_does_not_support_nesting"
	CodeDuplicateField            Code = "duplicate_field"
	CodeCalculationRequiresArgs   Code = "calculation_requires_args"
	CodeInvalidCalculationArgs    Code = "invalid_calculation_args_format"
	CodeInvalidUnionFieldFormat   Code = "invalid_union_field_format"
	CodeInvalidFieldType          Code = "invalid_field_type"
	CodeUnsupportedCombination    Code = "unsupported_field_combination"
	CodeInvalidPagination         Code = "invalid_pagination"
	CodeUnknownResource           Code = "unknown_resource"
	CodeUnknownAction             Code = "unknown_action"
)

// Path is the location of a selection node, one canonical field name per
// nesting level. The zero value is the root.
type Path []string

// Child returns a new Path extended with name. The receiver is not mutated so
// sibling branches can share a prefix.
func (p Path) Child(name string) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = name
	return child
}

func (p Path) String() string { return strings.Join(p, ".") }

// Error is a structured client-input validation error.
type Error struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Path       string `json:"path,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports code equality so callers can match with errors.Is against a
// template error carrying only a Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the machine code from err, or "" when err is not a *Error.
func CodeOf(err error) Code {
	if fe, ok := err.(*Error); ok {
		return fe.Code
	}
	return ""
}
