package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/resource"
)

// newBlogRegistry builds the schema set used across selection tests:
// articles with relationships, an embedded address on people, a typed
// SEO struct, a coordinates tuple, a tagged payload union and a spread
// of calculations and aggregates.
func newBlogRegistry(t *testing.T) *resource.Registry {
	t.Helper()
	reg := resource.NewRegistry()

	article := &resource.Definition{
		Name: "article",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "title", Type: resource.ScalarType("string")},
			{Name: "body", Type: resource.ScalarType("string")},
			{Name: "published_at", Type: resource.ScalarType("timestamp")},
			{Name: "metadata", Type: resource.GenericType()},
			{Name: "author", Relation: &resource.RelationDef{Destination: "person", Cardinality: resource.One}},
			{Name: "comments", Relation: &resource.RelationDef{Destination: "comment", Cardinality: resource.Many}},
			{Name: "seo", Struct: []resource.StructField{
				{Name: "meta_title", Type: resource.ScalarType("string")},
				{Name: "meta_description", Type: resource.ScalarType("string")},
				{Name: "image", Type: resource.StructType(
					resource.StructField{Name: "url", Type: resource.ScalarType("string")},
					resource.StructField{Name: "width", Type: resource.ScalarType("integer")},
				)},
			}},
			{Name: "coordinates", Tuple: []resource.TupleElement{
				{Name: "lat", Type: resource.ScalarType("float")},
				{Name: "lng", Type: resource.ScalarType("float")},
				{Name: "alt", Type: resource.ScalarType("float")},
			}},
			{Name: "payload", Union: []resource.UnionMember{
				{Tag: "text", Type: resource.ScalarType("string")},
				{Tag: "image", Type: resource.StructType(
					resource.StructField{Name: "url", Type: resource.ScalarType("string")},
					resource.StructField{Name: "alt", Type: resource.ScalarType("string")},
				)},
				{Tag: "reference", Type: resource.ResourceType("person")},
			}},
			{Name: "word_count", Calc: &resource.CalcDef{Returns: resource.ScalarType("integer")}},
			{Name: "reading_stats", Calc: &resource.CalcDef{Returns: resource.StructType(
				resource.StructField{Name: "minutes", Type: resource.ScalarType("integer")},
				resource.StructField{Name: "level", Type: resource.ScalarType("string")},
			)}},
			{Name: "excerpt", Calc: &resource.CalcDef{
				Returns: resource.ScalarType("string"),
				Args: []resource.Arg{
					{Name: "max_length", Type: resource.ScalarType("integer"), Default: 100},
					{Name: "suffix", Type: resource.ScalarType("string")},
				},
			}},
			{Name: "comment_count", Agg: &resource.AggDef{Kind: "count"}},
			{Name: "latest_comment", Agg: &resource.AggDef{Kind: "first", Of: "comment"}},
		},
		Actions: []resource.ActionDef{
			{Name: "word_histogram", Kind: resource.ActionRun, Returns: resource.StructType(
				resource.StructField{Name: "buckets", Type: resource.GenericType()},
				resource.StructField{Name: "total", Type: resource.ScalarType("integer")},
			)},
			{Name: "publish", Kind: resource.ActionRun, Returns: resource.ScalarType("boolean")},
			{Name: "related", Kind: resource.ActionRun, Returns: resource.ArrayType(resource.ResourceType("article"))},
			{Name: "reindex", Kind: resource.ActionRun},
		},
	}

	person := &resource.Definition{
		Name: "person",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "name", Type: resource.ScalarType("string")},
			{Name: "email", Type: resource.ScalarType("string")},
			{Name: "address", Embed: &resource.EmbedDef{Destination: "address"}},
			{Name: "articles", Relation: &resource.RelationDef{Destination: "article", Cardinality: resource.Many}},
			{Name: "article_count", Agg: &resource.AggDef{Kind: "count"}},
		},
	}

	comment := &resource.Definition{
		Name: "comment",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "message", Type: resource.ScalarType("string")},
			{Name: "author", Relation: &resource.RelationDef{Destination: "person", Cardinality: resource.One}},
		},
	}

	address := &resource.Definition{
		Name: "address",
		Fields: []resource.FieldDef{
			{Name: "street", Type: resource.ScalarType("string")},
			{Name: "city", Type: resource.ScalarType("string")},
			{Name: "country", Type: resource.ScalarType("string")},
		},
	}

	for _, def := range []*resource.Definition{article, person, comment, address} {
		require.NoError(t, reg.Register(def))
	}
	require.NoError(t, reg.Validate())
	return reg
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(newBlogRegistry(t), naming.CamelCase)
}

func mustSchema(t *testing.T, reg *resource.Registry, name string) *resource.Schema {
	t.Helper()
	s, err := reg.Describe(name)
	require.NoError(t, err)
	return s
}

// leafNames flattens a node list to its names, for comparing toggle
// resolution results.
func leafNames(nodes []Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}
