package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/specbuild/oaserrors"
)

const petsYAML = `swagger: "2.0"
info:
  title: Pets
  version: 1.0.0
x-internal-owner: pets-team
tags:
  - name: pets
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Pet"
definitions:
  Pet:
    type: object
    properties:
      id:
        type: integer
  Orphan:
    type: object
`

const storeYAML = `swagger: "2.0"
info:
  title: Store
  version: 1.0.0
paths:
  /orders:
    get:
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Pet"
        "201":
          description: created
          schema:
            $ref: "#/definitions/Order"
definitions:
  Pet:
    type: object
  Order:
    type: object
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeYAML(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func TestSetupBuildFlags(t *testing.T) {
	fs, flags := SetupBuildFlags()

	t.Run("default values", func(t *testing.T) {
		assert.Empty(t, flags.Output)
		assert.Empty(t, flags.Format)
		assert.Empty(t, flags.TreeShake)
		assert.False(t, flags.IgnoreConflict)
		assert.Equal(t, -1, flags.Retries)
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{
			"-o", "out.json", "-tree-shake", "top-down", "-ignore-conflict",
			"-strip-prefix", "x-internal-", "-strip-prefix", "x-private-",
			"-mark", "x-public=true", "-q", "a.yaml", "b.yaml",
		}
		require.NoError(t, fs.Parse(args))
		assert.Equal(t, "out.json", flags.Output)
		assert.Equal(t, "top-down", flags.TreeShake)
		assert.True(t, flags.IgnoreConflict)
		assert.Equal(t, stringsFlag{"x-internal-", "x-private-"}, flags.StripPrefixes)
		assert.Equal(t, markFlag{Field: "x-public", Value: true}, flags.Mark)
		assert.True(t, flags.Quiet)
		assert.Equal(t, 2, fs.NArg())
	})
}

func TestMarkFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    markFlag
		wantErr bool
	}{
		{in: "x-a=true", want: markFlag{Field: "x-a", Value: true}},
		{in: "x-a=3", want: markFlag{Field: "x-a", Value: 3}},
		{in: "x-a=public", want: markFlag{Field: "x-a", Value: "public"}},
		{in: "x-a=", want: markFlag{Field: "x-a", Value: ""}},
		{in: "x-a", wantErr: true},
		{in: "=v", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m markFlag
			err := m.Set(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestHandleBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("merges to stdout with post-processing", func(t *testing.T) {
		dir := t.TempDir()
		pets := writeFixture(t, dir, "pets.yaml", petsYAML)
		store := writeFixture(t, dir, "store.yaml", storeYAML)

		var stdout, stderr bytes.Buffer
		err := HandleBuild(ctx, []string{
			"-q", "-set-version", "2.0.0", "-tree-shake", "bottom-up",
			"-strip-prefix", "x-internal-", "-mark", "x-public=true",
			pets, store,
		}, &stdout, &stderr)
		require.NoError(t, err)
		assert.Empty(t, stderr.String())

		doc := decodeYAML(t, stdout.Bytes())
		assert.Equal(t, "2.0.0", doc["info"].(map[string]any)["version"])
		assert.NotContains(t, doc, "x-internal-owner")

		defs := doc["definitions"].(map[string]any)
		assert.Contains(t, defs, "Pet")
		assert.Contains(t, defs, "_StorePet")
		assert.Contains(t, defs, "Order")
		assert.NotContains(t, defs, "Orphan")
		assert.Equal(t, true, defs["Order"].(map[string]any)["x-public"])
	})

	t.Run("writes json file", func(t *testing.T) {
		dir := t.TempDir()
		pets := writeFixture(t, dir, "pets.yaml", petsYAML)
		out := filepath.Join(dir, "api.json")

		var stdout, stderr bytes.Buffer
		require.NoError(t, HandleBuild(ctx, []string{"-o", out, pets}, &stdout, &stderr))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Output written to: "+out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "2.0", doc["swagger"])
	})

	t.Run("help", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, HandleBuild(ctx, []string{"-h"}, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "Usage: specbuild build")
	})

	t.Run("errors", func(t *testing.T) {
		dir := t.TempDir()
		pets := writeFixture(t, dir, "pets.yaml", petsYAML)

		tests := []struct {
			name string
			args []string
			is   error
		}{
			{name: "no targets", args: nil},
			{name: "bad format", args: []string{"-format", "xml", pets}, is: oaserrors.ErrConfig},
			{name: "bad strategy", args: []string{"-tree-shake", "sideways", pets}, is: oaserrors.ErrConfig},
			{name: "overwrites input", args: []string{"-o", pets, pets}},
			{name: "missing input", args: []string{filepath.Join(dir, "missing.yaml")}, is: oaserrors.ErrParse},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var stdout, stderr bytes.Buffer
				err := HandleBuild(ctx, tt.args, &stdout, &stderr)
				require.Error(t, err)
				if tt.is != nil {
					assert.ErrorIs(t, err, tt.is)
				}
			})
		}
	})
}

func TestHandleCheck(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pets := writeFixture(t, dir, "pets.yaml", petsYAML)
	store := writeFixture(t, dir, "store.yaml", storeYAML)

	t.Run("clean document", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, HandleCheck(ctx, []string{pets}, &stdout, &stderr))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "no findings")
	})

	t.Run("findings", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := HandleCheck(ctx, []string{pets, store}, &stdout, &stderr)
		require.ErrorIs(t, err, ErrFindings)

		out := stdout.String()
		assert.Contains(t, out, store+": 2 findings")
		assert.Contains(t, out, "missing operationId")
		assert.Contains(t, out, "2 different success responses")
		assert.NotContains(t, out, pets+":")
		assert.Contains(t, stderr.String(), "2 findings in 1 document")
	})

	t.Run("selected checker", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := HandleCheck(ctx, []string{"-q", "-checker", "multi-success", store}, &stdout, &stderr)
		require.ErrorIs(t, err, ErrFindings)
		assert.Contains(t, stdout.String(), store+": 1 finding")
		assert.Empty(t, stderr.String())
	})

	t.Run("dangling reference is checked", func(t *testing.T) {
		dangling := writeFixture(t, dir, "dangling.yaml", `swagger: "2.0"
paths:
  /ghosts:
    get:
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Missing"
`)
		var stdout, stderr bytes.Buffer
		err := HandleCheck(ctx, []string{dangling}, &stdout, &stderr)
		require.ErrorIs(t, err, ErrFindings)
		assert.Contains(t, stdout.String(), dangling+": 1 finding")
		assert.Contains(t, stdout.String(), "missing operationId")
		assert.Contains(t, stderr.String(), "#/definitions/Missing")
	})

	t.Run("unknown checker", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := HandleCheck(ctx, []string{"-checker", "spelling", store}, &stdout, &stderr)
		assert.ErrorIs(t, err, oaserrors.ErrConfig)
	})

	t.Run("no targets", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Error(t, HandleCheck(ctx, nil, &stdout, &stderr))
	})
}

func TestHandleVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, HandleVersion(nil, &stdout, &stderr))
	assert.Equal(t, "specbuild vdev\n", stdout.String())

	stdout.Reset()
	require.NoError(t, HandleVersion([]string{"-build-info"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Go Version:")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"operation-id", "dictionary"}, splitList(" operation-id, ,dictionary"))
	assert.Nil(t, splitList(""))
}
