package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldgate/fieldgate/internal/engine"
	"github.com/fieldgate/fieldgate/internal/memstore"
	"github.com/fieldgate/fieldgate/internal/resource"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	reg := resource.NewRegistry()
	require.NoError(t, reg.Register(&resource.Definition{
		Name: "article",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "title", Type: resource.ScalarType("string")},
			{Name: "author", Relation: &resource.RelationDef{Destination: "person"}},
		},
	}))
	require.NoError(t, reg.Register(&resource.Definition{
		Name: "person",
		Fields: []resource.FieldDef{
			{Name: "id", Type: resource.ScalarType("id")},
			{Name: "name", Type: resource.ScalarType("string")},
		},
	}))
	require.NoError(t, reg.Validate())

	store := memstore.New(reg)
	store.Seed("person", map[string]any{"id": "a1", "name": "N"})
	store.Seed("article", map[string]any{"id": "1", "title": "T", "author": "a1"})
	return New(engine.New(reg, store), opts...)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSingleRequest(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, `{"resource":"article","action":"get","id":"1","fields":["title",{"author":["name"]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	require.Equal(t, map[string]any{
		"data": map[string]any{
			"title":  "T",
			"author": map[string]any{"name": "N"},
		},
	}, body)
}

func TestShorthandFields(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, `{"resource":"article","action":"get","id":"1","fields":"title author { name }"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	data := body["data"].(map[string]any)
	require.Equal(t, "T", data["title"])
	require.Equal(t, map[string]any{"name": "N"}, data["author"])
}

func TestClientErrorsAreResponses(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, `{"resource":"article","action":"get","id":"1","fields":[{"author":["nickname"]}]}`)
	// Client input problems ride in the body, not the HTTP status.
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	e := errs[0].(map[string]any)
	require.Equal(t, "unknown_field", e["code"])
	require.Equal(t, "author.nickname", e["path"])
}

func TestBatchPreservesOrder(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h, `[
		{"resource":"article","action":"get","id":"1","fields":["title"]},
		{"resource":"article","action":"get","id":"1","fields":["nope"]},
		{"resource":"article","action":"get","id":"1","fields":["id"]}
	]`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[[]map[string]any](t, rec)
	require.Len(t, body, 3)
	require.Equal(t, map[string]any{"title": "T"}, body[0]["data"])
	require.Contains(t, body[1], "errors")
	require.Equal(t, map[string]any{"id": "1"}, body[2]["data"])
}

func TestEnvelopeErrors(t *testing.T) {
	h := newTestHandler(t)

	t.Run("invalid JSON", func(t *testing.T) {
		rec := postJSON(t, h, `{`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("empty batch", func(t *testing.T) {
		rec := postJSON(t, h, `[]`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("missing resource", func(t *testing.T) {
		rec := postJSON(t, h, `{"action":"get"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		e := body["errors"].([]any)[0].(map[string]any)
		require.Equal(t, "invalid_request", e["code"])
	})
	t.Run("malformed fields value", func(t *testing.T) {
		rec := postJSON(t, h, `{"resource":"article","action":"get","fields":42}`)
		body := decodeBody[map[string]any](t, rec)
		e := body["errors"].([]any)[0].(map[string]any)
		require.Equal(t, "invalid_field_type", e["code"])
	})
	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
	t.Run("unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(16))
	rec := postJSON(t, h, `{"resource":"article","action":"get","id":"1"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://app.example"))

	req := httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	// Simple request from a non-allowed origin gets no CORS header.
	post := postJSON(t, h, `{"resource":"article","action":"get","id":"1"}`)
	require.Empty(t, post.Header().Get("Access-Control-Allow-Origin"))
}

func TestSchemaEndpoint(t *testing.T) {
	reg := resource.NewRegistry()
	require.NoError(t, reg.Register(&resource.Definition{
		Name:   "article",
		Fields: []resource.FieldDef{{Name: "id", Type: resource.ScalarType("id")}},
	}))
	eng := engine.New(reg, memstore.New(reg))

	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rec := httptest.NewRecorder()
	NewSchema(eng).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	require.Len(t, body["resources"], 1)
}
