package introspect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/resource"
)

func TestCatalog(t *testing.T) {
	reg := resource.NewRegistry()
	require.NoError(t, reg.Register(&resource.Definition{
		Name: "article",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "published_at", Type: resource.ScalarType("timestamp")},
			{Name: "author", Relation: &resource.RelationDef{Destination: "person"}},
			{Name: "payload", Union: []resource.UnionMember{
				{Tag: "text", Type: resource.ScalarType("string")},
			}},
			{Name: "excerpt", Calc: &resource.CalcDef{
				Returns: resource.ScalarType("string"),
				Args:    []resource.Arg{{Name: "max_length", Type: resource.ScalarType("integer"), Default: 100}},
			}},
		},
	}))
	require.NoError(t, reg.Register(&resource.Definition{
		Name:   "person",
		Fields: []resource.FieldDef{{Name: "id", Type: resource.ScalarType("id")}},
	}))

	cat, err := Catalog(reg, naming.CamelCase)
	require.NoError(t, err)

	// The catalog must be plain JSON-marshalable data.
	_, err = json.Marshal(cat)
	require.NoError(t, err)

	resources := cat["resources"].([]any)
	require.Len(t, resources, 2)

	article := resources[0].(map[string]any)
	require.Equal(t, "article", article["name"])
	fields := article["fields"].([]any)
	require.Len(t, fields, 5)

	published := fields[1].(map[string]any)
	require.Equal(t, "publishedAt", published["name"])
	require.Equal(t, "attribute", published["kind"])
	require.Equal(t, true, published["leafable"])

	author := fields[2].(map[string]any)
	require.Equal(t, "relationship", author["kind"])
	require.Equal(t, false, author["leafable"])
	require.Equal(t, "person", author["destination"])
	require.Equal(t, "one", author["cardinality"])

	payload := fields[3].(map[string]any)
	require.Equal(t, "union", payload["kind"])
	require.Len(t, payload["members"], 1)

	excerpt := fields[4].(map[string]any)
	require.Equal(t, "calculation_with_args", excerpt["kind"])
	args := excerpt["args"].([]any)
	require.Equal(t, "maxLength", args[0].(map[string]any)["name"])

	actions := article["actions"].([]any)
	require.Len(t, actions, 2) // implicit get and list
}
