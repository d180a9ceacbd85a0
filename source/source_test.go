package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/specbuild/oaserrors"
)

const petstoreYAML = `swagger: "2.0"
info:
  title: Petstore
  version: 1.0.0
host: pets.example.com
tags:
  - name: pets
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        200:
          description: ok
          schema:
            $ref: '#/definitions/Zebra'
definitions:
  Zebra:
    type: object
    properties:
      error:
        $ref: 'common.yaml#/definitions/Error'
  Apple:
    type: string
`

const commonYAML = `swagger: "2.0"
info:
  title: Common
  version: 1.0.0
paths: {}
definitions:
  Error:
    type: object
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestOpenLocalYAML(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "petstore.yaml", petstoreYAML)
	writeFile(t, dir, "common.yaml", commonYAML)

	acc, err := Open(ctx, "petstore.yaml", WithBaseDir(dir))
	require.NoError(t, err)
	require.IsType(t, &LocalFile{}, acc)
	assert.Equal(t, KindLocalPath, acc.Kind())
	assert.Equal(t, path, acc.SourcePath())
	assert.False(t, acc.IsParsed(), "content is loaded lazily")

	env, err := acc.Envelope(ctx)
	require.NoError(t, err)
	assert.True(t, acc.IsParsed())
	assert.Equal(t, "pets.example.com", env["host"])
	assert.NotContains(t, env, "paths")
	assert.NotContains(t, env, "definitions")
	assert.NotContains(t, env, "tags")

	names, err := acc.DefinitionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra", "Apple"}, names, "document order is kept")

	paths, err := acc.Paths(ctx)
	require.NoError(t, err)
	get := paths["/pets"].(map[string]any)["get"].(map[string]any)
	responses, ok := get["responses"].(map[string]any)
	require.True(t, ok, "integer status keys are normalized to string keys")
	assert.Contains(t, responses, "200")

	tags, err := acc.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestOpenCanonicalizesOuterReferences(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "specs/petstore.yaml", petstoreYAML)
	common := writeFile(t, dir, "specs/common.yaml", commonYAML)

	acc, err := Open(ctx, "specs/petstore.yaml", WithBaseDir(dir))
	require.NoError(t, err)

	defs, err := acc.Definitions(ctx)
	require.NoError(t, err)
	zebra := defs["Zebra"].(map[string]any)
	ref := zebra["properties"].(map[string]any)["error"].(map[string]any)["$ref"]
	assert.Equal(t, common+"#/definitions/Error", ref)

	// inner references are untouched
	paths, err := acc.Paths(ctx)
	require.NoError(t, err)
	schema := paths["/pets"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["200"].(map[string]any)["schema"].(map[string]any)
	assert.Equal(t, "#/definitions/Zebra", schema["$ref"])
}

func TestOpenPackage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pkg := writeFile(t, dir, "node_modules/@example/spec/api.yaml", commonYAML)
	app := filepath.Join(dir, "app", "nested")
	require.NoError(t, os.MkdirAll(app, 0o755))

	acc, err := Open(ctx, "@example/spec/api.yaml", WithBaseDir(app))
	require.NoError(t, err)
	assert.Equal(t, KindPackage, acc.Kind())
	assert.Equal(t, pkg, acc.SourcePath())
}

func TestOpenSearchPaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	lib := t.TempDir()
	want := writeFile(t, lib, "shared/common.yaml", commonYAML)

	acc, err := Open(ctx, "shared/common.yaml", WithBaseDir(dir), WithSearchPaths(lib))
	require.NoError(t, err)
	assert.Equal(t, KindPackage, acc.Kind())
	assert.Equal(t, want, acc.SourcePath())
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "list.yaml", "- a\n- b\n")

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(ctx, "missing.yaml", WithBaseDir(dir))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Open(ctx, "notes.txt", WithBaseDir(dir))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})

	t.Run("root is not an object", func(t *testing.T) {
		acc, err := Open(ctx, "list.yaml", WithBaseDir(dir))
		require.NoError(t, err)
		err = acc.Parse(ctx)
		require.Error(t, err)
		var pe *oaserrors.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Contains(t, pe.Message, "must be an object")
	})

	t.Run("negative retries", func(t *testing.T) {
		_, err := NewLoader(WithRetries(-1))
		assert.Error(t, err)
	})
}

func TestRemote(t *testing.T) {
	ctx := context.Background()
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/specs/api.json":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(`{"swagger":"2.0","info":{"version":"1"},"paths":{},"definitions":{"B":{"$ref":"other.yaml#/definitions/X"},"A":{"type":"string"}}}`))
		case "/specs/api.yaml":
			_, _ = w.Write([]byte(commonYAML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("json payload", func(t *testing.T) {
		acc, err := Open(ctx, srv.URL+"/specs/api.json", WithUserAgent("tests/1.0"))
		require.NoError(t, err)
		require.IsType(t, &Remote{}, acc)
		assert.Equal(t, KindURL, acc.Kind())

		defs, err := acc.Definitions(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tests/1.0", userAgent.Load())
		assert.Equal(t, srv.URL+"/specs/other.yaml#/definitions/X", defs["B"].(map[string]any)["$ref"])

		names, err := acc.DefinitionNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, names)
	})

	t.Run("yaml fallback", func(t *testing.T) {
		acc, err := Open(ctx, srv.URL+"/specs/api.yaml")
		require.NoError(t, err)
		defs, err := acc.Definitions(ctx)
		require.NoError(t, err)
		assert.Contains(t, defs, "Error")
	})
}

func TestRemoteStatusErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("client errors are not retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		acc, err := Open(ctx, srv.URL+"/api.yaml", WithRetries(3))
		require.NoError(t, err)
		err = acc.Parse(ctx)
		require.Error(t, err)

		var pe *oaserrors.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, http.StatusNotFound, pe.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(commonYAML))
		}))
		defer srv.Close()

		acc, err := Open(ctx, srv.URL+"/api.yaml", WithRetries(2))
		require.NoError(t, err)
		require.NoError(t, acc.Parse(ctx))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		acc, err := Open(ctx, srv.URL+"/api.yaml", WithRetries(0))
		require.NoError(t, err)
		err = acc.Parse(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
		assert.Contains(t, err.Error(), "HTTP 502")
	})
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	acc := NewInMemory("inline", map[string]any{
		"swagger": "2.0",
		"paths": map[string]any{
			"/a": map[string]any{"get": map[string]any{
				"responses": map[any]any{200: map[string]any{"description": "ok"}},
			}},
		},
		"definitions": map[string]any{"B": map[string]any{}, "A": map[string]any{}},
	})

	assert.True(t, acc.IsParsed())
	assert.Equal(t, KindMemory, acc.Kind())
	assert.Equal(t, "inline", acc.SourcePath())

	names, err := acc.DefinitionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	doc, err := Document(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc["swagger"])
	responses := doc["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)["responses"]
	assert.Contains(t, responses, "200")
	assert.NotContains(t, doc, "parameters", "empty collections are left out")
}
