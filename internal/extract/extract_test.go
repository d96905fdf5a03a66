package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/fetch"
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/selection"
)

func leaf(name string) selection.Entry {
	return selection.Entry{Kind: selection.EntryLeaf, Name: name}
}

func nested(name string, t *selection.Template) selection.Entry {
	return selection.Entry{Kind: selection.EntryNested, Name: name, Nested: t}
}

func record(entries ...selection.Entry) *selection.Template {
	return &selection.Template{Kind: selection.TemplateRecord, Entries: entries}
}

func TestExtractRecord(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(
		leaf("title"),
		nested("author", record(leaf("name"))),
	)
	raw := map[string]any{
		"id":    "1",
		"title": "T",
		"body":  "B",
		"author": map[string]any{
			"id":   "a1",
			"name": "N",
		},
	}
	got := x.Extract(raw, tmpl)
	want := map[string]any{
		"title":  "T",
		"author": map[string]any{"name": "N"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentinels(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(
		leaf("title"),
		leaf("word_count"),
		leaf("secret"),
		nested("author", record(leaf("name"))),
	)
	raw := map[string]any{
		"title":      "T",
		"word_count": fetch.NotLoaded,
		"secret":     fetch.Forbidden,
		"author":     fetch.Forbidden,
	}
	got, ok := x.Extract(raw, tmpl).(map[string]any)
	require.True(t, ok)

	// Not-loaded fields are omitted, forbidden fields are nulled.
	_, present := got["wordCount"]
	require.False(t, present, "not-loaded field must be omitted")
	secret, present := got["secret"]
	require.True(t, present)
	require.Nil(t, secret)
	author, present := got["author"]
	require.True(t, present)
	require.Nil(t, author)
}

func TestExtractNestedNull(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(nested("author", record(leaf("name"))))
	got, ok := x.Extract(map[string]any{"author": nil}, tmpl).(map[string]any)
	require.True(t, ok)
	v, present := got["author"]
	require.True(t, present)
	require.Nil(t, v)
}

func TestExtractList(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(leaf("title"))
	raw := []any{
		map[string]any{"title": "a", "body": "x"},
		map[string]any{"title": "b"},
	}
	got := x.Extract(raw, tmpl)
	want := []any{
		map[string]any{"title": "a"},
		map[string]any{"title": "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTuple(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(nested("coordinates", &selection.Template{
		Kind: selection.TemplateTuple,
		Entries: []selection.Entry{
			{Kind: selection.EntryTupleLeaf, Name: "lng", Index: 1},
			{Kind: selection.EntryTupleLeaf, Name: "lat", Index: 0},
		},
	}))
	raw := map[string]any{"coordinates": []any{52.5, 13.4, 34.0}}
	got := x.Extract(raw, tmpl)
	want := map[string]any{
		"coordinates": map[string]any{"lat": 52.5, "lng": 13.4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tuple mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUnion(t *testing.T) {
	x := New(naming.CamelCase)
	imageBranch := &selection.Template{
		Kind: selection.TemplateUnion,
		Entries: []selection.Entry{
			{Kind: selection.EntryBranch, Name: "text"},
			{Kind: selection.EntryBranch, Name: "image", Nested: record(leaf("url"))},
		},
	}
	tmpl := record(nested("payload", imageBranch))

	t.Run("matching branch with nested template", func(t *testing.T) {
		raw := map[string]any{"payload": fetch.Tagged{
			Tag:   "image",
			Value: map[string]any{"url": "http://x", "alt": "y"},
		}}
		got := x.Extract(raw, tmpl)
		want := map[string]any{
			"payload": map[string]any{"image": map[string]any{"url": "http://x"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("union mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("matching branch without nested template copies verbatim", func(t *testing.T) {
		raw := map[string]any{"payload": fetch.Tagged{Tag: "text", Value: "hello"}}
		got := x.Extract(raw, tmpl)
		want := map[string]any{"payload": map[string]any{"text": "hello"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("union mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unmatched active tag yields empty object", func(t *testing.T) {
		onlyText := record(nested("payload", &selection.Template{
			Kind:    selection.TemplateUnion,
			Entries: []selection.Entry{{Kind: selection.EntryBranch, Name: "text"}},
		}))
		raw := map[string]any{"payload": fetch.Tagged{Tag: "image", Value: map[string]any{"url": "u"}}}
		got := x.Extract(raw, onlyText)
		want := map[string]any{"payload": map[string]any{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("union mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExtractOffsetPage(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(leaf("title"))
	count := 42
	page := &fetch.OffsetPage{
		Results: []any{map[string]any{"title": "a", "body": "b"}},
		Limit:   5,
		Offset:  10,
		HasMore: true,
		Count:   &count,
	}
	got := x.Extract(page, tmpl)
	want := map[string]any{
		"type":    "offset",
		"results": []any{map[string]any{"title": "a"}},
		"limit":   5,
		"offset":  10,
		"hasMore": true,
		"count":   42,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCursorPage(t *testing.T) {
	x := New(naming.CamelCase)
	tmpl := record(leaf("title"))
	page := &fetch.CursorPage{
		Results: []any{map[string]any{"title": "a"}},
		Limit:   20,
		HasMore: false,
	}
	got := x.Extract(page, tmpl)
	want := map[string]any{
		"type":    "keyset",
		"results": []any{map[string]any{"title": "a"}},
		"limit":   20,
		"hasMore": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestScalarNormalization(t *testing.T) {
	x := New(naming.CamelCase)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tmpl := record(
		leaf("published_at"),
		leaf("price"),
		leaf("slug"),
		leaf("status"),
		leaf("metadata"),
	)
	raw := map[string]any{
		"published_at": ts,
		"price":        decimal.RequireFromString("19.90"),
		"slug":         fetch.CIString("Hello-World"),
		"status":       fetch.Enum("published"),
		"metadata": map[string]any{
			"updated": ts,
			"tags":    []any{fetch.Enum("go"), "web"},
		},
	}
	got := x.Extract(raw, tmpl)
	want := map[string]any{
		"publishedAt": "2024-03-01T12:30:00Z",
		"price":       "19.90",
		"slug":        "Hello-World",
		"status":      "published",
		"metadata": map[string]any{
			"updated": "2024-03-01T12:30:00Z",
			"tags":    []any{"go", "web"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalization mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractOpaque(t *testing.T) {
	x := New(naming.SnakeCase)
	tmpl := &selection.Template{Kind: selection.TemplateOpaque}
	raw := map[string]any{"anything": []any{1, "two", map[string]any{"three": 3}}}
	got := x.Extract(raw, tmpl)
	if diff := cmp.Diff(raw, got); diff != "" {
		t.Fatalf("opaque mismatch (-want +got):\n%s", diff)
	}
}
