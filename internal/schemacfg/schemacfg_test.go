package schemacfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/resource"
)

const blogSchema = `
resource "article" {
  attribute "id" { type = "id" }
  attribute "title" { type = "string" }
  attribute "published_at" { type = "timestamp" }
  attribute "metadata" { type = "generic" }

  calculation "word_count" { returns = "integer" }
  calculation "reading_stats" {
    field "minutes" { type = "integer" }
    field "level" { type = "string" }
  }
  calculation "excerpt" {
    returns = "string"
    arg "max_length" {
      type    = "integer"
      default = 100
    }
    arg "suffix" { type = "string" }
  }

  aggregate "comment_count" { kind = "count" }
  aggregate "latest_comment" {
    kind = "first"
    of   = "comment"
  }

  relationship "author" { to = "person" }
  relationship "comments" {
    to          = "comment"
    cardinality = "many"
  }

  union "payload" {
    member "text" { type = "string" }
    member "image" {
      field "url" { type = "string" }
      field "alt" { type = "string" }
    }
  }

  tuple "coordinates" {
    element "lat" { type = "float" }
    element "lng" { type = "float" }
  }

  action "related" {
    kind    = "run"
    returns = "[]article"
  }
  action "publish" {
    kind    = "run"
    returns = "boolean"
  }
}

resource "person" {
  attribute "id" { type = "id" }
  attribute "name" { type = "string" }
  embedded "address" { to = "address" }
}

resource "comment" {
  attribute "id" { type = "id" }
  attribute "message" { type = "string" }
}

resource "address" {
  attribute "city" { type = "string" }
}
`

func TestParseBlogSchema(t *testing.T) {
	defs, err := Parse("blog.hcl", []byte(blogSchema))
	require.NoError(t, err)
	require.Len(t, defs, 4)

	reg, err := Register(defs)
	require.NoError(t, err)

	sch, err := reg.Describe("article")
	require.NoError(t, err)

	require.Equal(t, []string{"id", "title", "published_at", "metadata"}, sch.SimpleNames())

	wc := sch.Field("word_count")
	require.NotNil(t, wc)
	require.Equal(t, resource.KindCalculation, wc.Kind)
	require.Equal(t, resource.TypeScalar, wc.Returns.Kind)

	stats := sch.Field("reading_stats")
	require.Equal(t, resource.KindCalculation, stats.Kind)
	require.Equal(t, resource.TypeStruct, stats.Returns.Kind)
	require.Len(t, stats.Returns.Fields, 2)

	excerpt := sch.Field("excerpt")
	require.Equal(t, resource.KindCalculationWithArgs, excerpt.Kind)
	require.Len(t, excerpt.Args, 2)
	require.Equal(t, 100, excerpt.Args[0].Default)
	require.Nil(t, excerpt.Args[1].Default)

	require.Equal(t, resource.KindAggregate, sch.Field("comment_count").Kind)
	latest := sch.Field("latest_comment")
	require.Equal(t, resource.KindComplexAggregate, latest.Kind)
	require.Equal(t, "comment", latest.Target.Name)

	author := sch.Field("author")
	require.Equal(t, resource.KindRelationship, author.Kind)
	require.Equal(t, resource.One, author.Cardinality)
	require.Equal(t, resource.Many, sch.Field("comments").Cardinality)

	payload := sch.Field("payload")
	require.Equal(t, resource.KindUnion, payload.Kind)
	require.Equal(t, resource.TypeStruct, payload.Members[1].Type.Kind)

	coords := sch.Field("coordinates")
	require.Equal(t, resource.KindTuple, coords.Kind)
	require.Len(t, coords.Elements, 2)

	related := sch.Action("related")
	require.NotNil(t, related)
	require.Equal(t, resource.ActionRun, related.Kind)
	require.Equal(t, resource.TypeArray, related.Returns.Kind)
	require.Equal(t, "article", related.Returns.Elem.Name)

	person, err := reg.Describe("person")
	require.NoError(t, err)
	addr := person.Field("address")
	require.Equal(t, resource.KindEmbedded, addr.Kind)
	require.Equal(t, "address", addr.Destination)
}

func TestParseDiagnostics(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `resource "a" {`},
		{name: "bad cardinality", src: `
resource "a" {
  relationship "b" {
    to          = "a"
    cardinality = "some"
  }
}`},
		{name: "bad action kind", src: `
resource "a" {
  action "x" { kind = "zap" }
}`},
		{name: "empty union", src: `
resource "a" {
  union "u" {}
}`},
		{name: "type and fields together", src: `
resource "a" {
  calculation "c" {
    returns = "string"
    field "x" { type = "string" }
  }
}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.name+".hcl", []byte(tc.src))
			require.Error(t, err)
		})
	}
}

func TestRegisterValidatesReferences(t *testing.T) {
	defs, err := Parse("dangling.hcl", []byte(`
resource "a" {
  attribute "id" { type = "id" }
  relationship "b" { to = "missing" }
}`))
	require.NoError(t, err)
	_, err = Register(defs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.hcl"), []byte(blogSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	defs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, defs, 4)

	t.Run("empty dir fails", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
	})
}
