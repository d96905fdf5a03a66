// Package naming converts between the wire naming convention used by clients
// (camelCase by default) and the canonical storage names used by resource
// schemas (snake_case). A Convention is an explicit value threaded through the
// request pipeline rather than process-global mutable state, so two handlers
// with different conventions can coexist.
package naming

import "strings"

// Convention selects how wire names map to canonical field names.
type Convention int

const (
	// CamelCase maps wire camelCase to canonical snake_case and back.
	CamelCase Convention = iota
	// SnakeCase passes snake_case through in both directions.
	SnakeCase
	// Passthrough disables conversion entirely.
	Passthrough
)

func (c Convention) String() string {
	switch c {
	case CamelCase:
		return "camel"
	case SnakeCase:
		return "snake"
	case Passthrough:
		return "passthrough"
	}
	return "unknown"
}

// ParseConvention maps a configuration string to a Convention.
func ParseConvention(s string) (Convention, bool) {
	switch s {
	case "camel", "camelCase":
		return CamelCase, true
	case "snake", "snake_case":
		return SnakeCase, true
	case "passthrough", "none":
		return Passthrough, true
	}
	return Passthrough, false
}

// Canonicalize converts a client-supplied wire name to its canonical form.
func (c Convention) Canonicalize(name string) string {
	if c == CamelCase {
		return snakeCase(name)
	}
	return name
}

// Format converts a canonical field name to its wire form.
func (c Convention) Format(name string) string {
	if c == CamelCase {
		return camelCase(name)
	}
	return name
}

// snakeCase converts camelCase or PascalCase to snake_case. Names that are
// already snake_case pass through unchanged.
func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// camelCase converts snake_case to camelCase. Leading underscores are kept so
// reserved names round-trip.
func camelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for i, r := range s {
		if r == '_' && i > 0 {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			b.WriteRune(r - ('a' - 'A'))
			upper = false
			continue
		}
		upper = false
		b.WriteRune(r)
	}
	return b.String()
}
