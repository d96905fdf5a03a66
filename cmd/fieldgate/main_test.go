package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `
resource "article" {
  attribute "id" { type = "id" }
  attribute "title" { type = "string" }
  relationship "author" { to = "person" }
}

resource "person" {
  attribute "id" { type = "id" }
  attribute "name" { type = "string" }
}
`

func writeSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.hcl"), []byte(testSchema), 0644))
	return dir
}

func captureOutput(t *testing.T, fn func() error) (stdout string, err error) {
	t.Helper()
	old := os.Stdout
	defer func() { os.Stdout = old }()

	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() { io.Copy(&buf, r); close(done) }()

	err = fn()
	w.Close()
	<-done
	return buf.String(), err
}

func TestHelp(t *testing.T) {
	out, err := captureOutput(t, func() error {
		return run([]string{"help", "serve"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
}

func TestUnknownCommand(t *testing.T) {
	err := run([]string{"frobnicate"})
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := writeSchemaDir(t)
	out, err := captureOutput(t, func() error {
		return run([]string{"check", "-schema.dir", dir})
	})
	require.NoError(t, err)
	require.Contains(t, out, "ok: 2 resources")
}

func TestCheckBadSchema(t *testing.T) {
	dir := t.TempDir()
	bad := `resource "article" { relationship "author" { to = "nowhere" } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(bad), 0644))
	err := run([]string{"check", "-schema.dir", dir})
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	dir := writeSchemaDir(t)
	out, err := captureOutput(t, func() error {
		return run([]string{"describe", "-schema.dir", dir})
	})
	require.NoError(t, err)
	require.Contains(t, out, `"resources"`)
	require.Contains(t, out, `"article"`)
}

func TestExplain(t *testing.T) {
	dir := writeSchemaDir(t)
	out, err := captureOutput(t, func() error {
		return run([]string{"explain", "-schema.dir", dir, "-resource", "article", "title author { name }"})
	})
	require.NoError(t, err)
	require.Contains(t, out, `"title"`)
	require.Contains(t, out, `"author"`)
}

func TestExplainRequiresResource(t *testing.T) {
	dir := writeSchemaDir(t)
	err := run([]string{"explain", "-schema.dir", dir, "title"})
	require.Error(t, err)
}
