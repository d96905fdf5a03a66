package selection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/fielderr"
)

// articleBaseline is the simple-field baseline of the article schema,
// in declaration order.
var articleBaseline = []string{"id", "title", "body", "published_at", "metadata"}

func TestNormalizeModes(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	for _, tc := range []struct {
		name string
		raw  []any
		want []string
	}{
		{
			name: "nil selection yields the baseline",
			raw:  nil,
			want: articleBaseline,
		},
		{
			name: "empty selection yields the baseline",
			raw:  []any{},
			want: articleBaseline,
		},
		{
			name: "removal subtracts from the baseline",
			raw:  []any{"-body"},
			want: []string{"id", "title", "published_at", "metadata"},
		},
		{
			name: "addition alone extends the baseline",
			raw:  []any{"+wordCount"},
			want: append(append([]string{}, articleBaseline...), "word_count"),
		},
		{
			name: "removals and additions combine against the baseline",
			raw:  []any{"-body", "-metadata", "+wordCount"},
			want: []string{"id", "title", "published_at", "word_count"},
		},
		{
			name: "explicit names replace the baseline",
			raw:  []any{"title", "+wordCount"},
			want: []string{"title", "word_count"},
		},
		{
			name: "explicit mode ignores removals",
			raw:  []any{"title", "-title", "-body"},
			want: []string{"title"},
		},
		{
			name: "nested object makes the selection explicit",
			raw:  []any{map[string]any{"author": []any{"name"}}},
			want: []string{"author"},
		},
		{
			name: "addition already explicit is not repeated",
			raw:  []any{"title", "+title"},
			want: []string{"title"},
		},
		{
			name: "repeated addition collapses",
			raw:  []any{"+wordCount", "+wordCount"},
			want: append(append([]string{}, articleBaseline...), "word_count"),
		},
		{
			name: "wire names canonicalize",
			raw:  []any{"publishedAt"},
			want: []string{"published_at"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			nodes, err := p.Normalize(sch, tc.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, leafNames(nodes)); diff != "" {
				t.Fatalf("selected names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeNestedMerging(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	// Repeated nested objects for the same field concatenate instead of
	// failing; duplicates are only rejected at the flat-field level.
	nodes, err := p.Normalize(sch, []any{
		map[string]any{"author": []any{"name"}},
		map[string]any{"author": []any{"email"}},
	})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, ShapeNested, nodes[0].Shape)
	require.Equal(t, []any{"name", "email"}, nodes[0].Raw)
	require.Equal(t, []string{"name", "email"}, leafNames(nodes[0].Nodes))
}

func TestNormalizeRelationshipRecursion(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	nodes, err := p.Normalize(sch, []any{
		map[string]any{"author": []any{"name", map[string]any{"articles": []any{"title"}}}},
	})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	author := nodes[0]
	require.Equal(t, []string{"name", "articles"}, leafNames(author.Nodes))
	require.Equal(t, []string{"title"}, leafNames(author.Nodes[1].Nodes))
}

func TestNormalizeInvocation(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	nodes, err := p.Normalize(sch, []any{
		map[string]any{"excerpt": map[string]any{"args": map[string]any{"maxLength": 40}}},
	})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, ShapeLeafWithArgs, nodes[0].Shape)
	require.True(t, nodes[0].HasArgs)

	t.Run("select aliases fields", func(t *testing.T) {
		for _, key := range []string{"fields", "select"} {
			nodes, err := p.Normalize(sch, []any{
				map[string]any{"excerpt": map[string]any{"args": map[string]any{}, key: []any{"minutes"}}},
			})
			require.NoError(t, err)
			require.Equal(t, []any{"minutes"}, nodes[0].Raw)
		}
	})
	t.Run("fields and select together are malformed", func(t *testing.T) {
		_, err := p.Normalize(sch, []any{
			map[string]any{"excerpt": map[string]any{"args": map[string]any{}, "fields": []any{"x"}, "select": []any{"x"}}},
		})
		requireCode(t, err, fielderr.CodeInvalidFieldType, "excerpt")
	})
}

func TestNormalizeMalformedItems(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	for _, tc := range []struct {
		name string
		raw  []any
		path string
	}{
		{name: "number item", raw: []any{42}, path: ""},
		{name: "boolean item", raw: []any{true}, path: ""},
		{name: "empty object item", raw: []any{map[string]any{}}, path: ""},
		{name: "nested non-list non-object", raw: []any{map[string]any{"author": 7}}, path: "author"},
		{name: "malformed deep in a relationship", raw: []any{map[string]any{"author": []any{3.5}}}, path: "author"},
		{name: "invocation fields not a list", raw: []any{map[string]any{"excerpt": map[string]any{"args": map[string]any{}, "fields": "x"}}}, path: "excerpt"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Normalize(sch, tc.raw)
			var fe *fielderr.Error
			require.ErrorAs(t, err, &fe)
			require.Equal(t, fielderr.CodeInvalidFieldType, fe.Code)
			require.Equal(t, tc.path, fe.Path)
		})
	}
}

func TestNormalizeTypeErrorBeatsDuplicateAndUnknown(t *testing.T) {
	p := newTestProcessor(t)
	sch := mustSchema(t, p.reg, "article")

	// The malformed trailing item must win over both the duplicate and
	// the unknown name that precede it: well-formedness is checked for
	// the whole level before any field-level validation runs.
	_, _, err := p.ProcessRaw(sch, []any{"title", "title", "nope", 42})
	require.Equal(t, fielderr.CodeInvalidFieldType, fielderr.CodeOf(err))
}
