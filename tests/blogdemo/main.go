// Demo server for manual poking: a small blog schema over the in-memory
// store, listening on /rpc and /schema. Useful with curl:
//
//	curl -s localhost:8080/rpc -d '{"resource":"article","action":"get","id":"post-1","fields":"title author { name }"}'
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fieldgate/fieldgate/internal/engine"
	"github.com/fieldgate/fieldgate/internal/eventbus"
	"github.com/fieldgate/fieldgate/internal/fetch"
	"github.com/fieldgate/fieldgate/internal/logging"
	"github.com/fieldgate/fieldgate/internal/memstore"
	"github.com/fieldgate/fieldgate/internal/schemacfg"
	"github.com/fieldgate/fieldgate/internal/server"
)

const blogSchema = `
resource "article" {
  attribute "id" { type = "id" }
  attribute "title" { type = "string" }
  attribute "body" { type = "string" }
  attribute "published_at" { type = "timestamp" }
  attribute "metadata" { type = "generic" }

  relationship "author" { to = "person" }
  relationship "comments" {
    to          = "comment"
    cardinality = "many"
  }

  struct "seo" {
    field "meta_title" { type = "string" }
    field "meta_description" { type = "string" }
  }

  tuple "coordinates" {
    element "lat" { type = "float" }
    element "lng" { type = "float" }
  }

  union "payload" {
    member "text" { type = "string" }
    member "image" {
      field "url" { type = "string" }
      field "alt" { type = "string" }
    }
  }

  calculation "word_count" { returns = "integer" }
  calculation "excerpt" {
    returns = "string"
    arg "max_length" {
      type    = "integer"
      default = 100
    }
  }

  aggregate "comment_count" { kind = "count" }

  action "publish" {
    kind    = "run"
    returns = "boolean"
  }
  action "word_histogram" {
    kind = "run"
    field "buckets" { type = "generic" }
    field "total" { type = "integer" }
  }
}

resource "person" {
  attribute "id" { type = "id" }
  attribute "name" { type = "string" }
  attribute "email" { type = "string" }
  embedded "address" { to = "address" }
}

resource "comment" {
  attribute "id" { type = "id" }
  attribute "message" { type = "string" }
  relationship "author" { to = "person" }
}

resource "address" {
  attribute "street" { type = "string" }
  attribute "city" { type = "string" }
}
`

func seed(store *memstore.Store) {
	store.Seed("person",
		map[string]any{
			"id": "user-1", "name": "John Doe", "email": "john@example.com",
			"address": map[string]any{"street": "1 Main St", "city": "Springfield"},
		},
		map[string]any{
			"id": "user-2", "name": "Jane Smith", "email": "jane@example.com",
		},
	)
	store.Seed("article",
		map[string]any{
			"id": "post-1", "title": "Getting Started with Go",
			"body":         "Go is a statically typed, compiled programming language built for simple, reliable software.",
			"published_at": time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			"metadata":     map[string]any{"series": "intro", "part": 1},
			"author":       "user-1",
			"comments":     []any{"comment-1", "comment-2"},
			"seo":          map[string]any{"meta_title": "Go intro", "meta_description": "First steps"},
			"coordinates":  []any{37.77, -122.41},
			"payload":      fetch.Tagged{Tag: "text", Value: "Welcome to the series."},
		},
		map[string]any{
			"id": "post-2", "title": "Field Selections in Practice",
			"body":     "Sparse fieldsets keep payloads small and intent explicit.",
			"author":   "user-2",
			"comments": []any{"comment-3"},
			"payload":  fetch.Tagged{Tag: "image", Value: map[string]any{"url": "https://example.com/cover.png", "alt": "cover"}},
		},
	)
	store.Seed("comment",
		map[string]any{"id": "comment-1", "message": "Great article!", "author": "user-2"},
		map[string]any{"id": "comment-2", "message": "Very helpful, thanks!", "author": "user-2"},
		map[string]any{"id": "comment-3", "message": "I disagree with some points...", "author": "user-1"},
	)

	store.Calc("article", "word_count", func(rec, _ map[string]any) any {
		body, _ := rec["body"].(string)
		return len(strings.Fields(body))
	})
	store.Calc("article", "excerpt", func(rec, args map[string]any) any {
		body, _ := rec["body"].(string)
		n, _ := args["max_length"].(int)
		if n > 0 && n < len(body) {
			return body[:n] + "..."
		}
		return body
	})
	store.Calc("article", "comment_count", func(rec, _ map[string]any) any {
		ids, _ := rec["comments"].([]any)
		return len(ids)
	})

	store.Action("article", "publish", func(ctx context.Context, args, record map[string]any) (any, error) {
		return true, nil
	})
	store.Action("article", "word_histogram", func(ctx context.Context, args, record map[string]any) (any, error) {
		buckets := map[string]any{}
		total := 0
		body, _ := record["body"].(string)
		for _, w := range strings.Fields(strings.ToLower(body)) {
			w = strings.Trim(w, ".,!?")
			if n, ok := buckets[w].(int); ok {
				buckets[w] = n + 1
			} else {
				buckets[w] = 1
			}
			total++
		}
		return map[string]any{"buckets": buckets, "total": total}, nil
	})
}

func main() {
	addr := flag.String("addr", ":8080", "the address to listen on")
	flag.Parse()

	defs, err := schemacfg.Parse("blog.hcl", []byte(blogSchema))
	if err != nil {
		log.Fatalf("parse schema: %v", err)
	}
	reg, err := schemacfg.Register(defs)
	if err != nil {
		log.Fatalf("register schema: %v", err)
	}

	store := memstore.New(reg)
	seed(store)

	eventbus.Use(eventbus.New())
	logging.Subscribe(logging.NewLogger("debug", "text"))

	eng := engine.New(reg, store)

	mux := http.NewServeMux()
	mux.Handle("/rpc", server.New(eng, server.WithPretty()))
	mux.Handle("/schema", server.NewSchema(eng, server.WithPretty()))

	log.Printf("blog demo listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
