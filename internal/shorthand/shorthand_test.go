package shorthand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  []any
	}{
		{
			name:  "empty string is nil",
			input: "",
			want:  nil,
		},
		{
			name:  "plain names",
			input: "title body",
			want:  []any{"title", "body"},
		},
		{
			name:  "nested selection",
			input: "title author { name email }",
			want: []any{
				"title",
				map[string]any{"author": []any{"name", "email"}},
			},
		},
		{
			name:  "arguments become an invocation object",
			input: "excerpt(maxLength: 40, suffix: \"...\")",
			want: []any{
				map[string]any{"excerpt": map[string]any{
					"args": map[string]any{"maxLength": 40, "suffix": "..."},
				}},
			},
		},
		{
			name:  "arguments with nested fields",
			input: "stats(window: 7) { minutes level }",
			want: []any{
				map[string]any{"stats": map[string]any{
					"args":   map[string]any{"window": 7},
					"fields": []any{"minutes", "level"},
				}},
			},
		},
		{
			name:  "deep nesting",
			input: "author { address { city } }",
			want: []any{
				map[string]any{"author": []any{
					map[string]any{"address": []any{"city"}},
				}},
			},
		},
		{
			name:  "scalar argument kinds",
			input: "calc(f: 1.5, b: true, n: null, e: UP, l: [1, 2], o: {a: 1})",
			want: []any{
				map[string]any{"calc": map[string]any{
					"args": map[string]any{
						"f": 1.5, "b": true, "n": nil, "e": "UP",
						"l": []any{1, 2}, "o": map[string]any{"a": 1},
					},
				}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
	}{
		{name: "syntax error", input: "author {"},
		{name: "fragment spread", input: "...f"},
		{name: "inline fragment", input: "... on Thing { id }"},
		{name: "alias", input: "a: title"},
		{name: "directive", input: "title @include(if: true)"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
		})
	}
}
