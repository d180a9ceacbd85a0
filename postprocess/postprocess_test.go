package postprocess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/joiner"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
	"github.com/erraggy/specbuild/shaker"
)

func defRef(name string) map[string]any {
	return map[string]any{"$ref": refs.DefinitionRef(name)}
}

func conflictedDocument() map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"/pets": map[string]any{"get": map[string]any{"responses": map[string]any{
				"200": map[string]any{"description": "ok", "schema": defRef("Pet")},
			}}},
		},
		"definitions": map[string]any{
			"_ApiPet": map[string]any{
				joiner.ConflictExtension: true,
				"type":                   "object",
				"description":            "original pet",
				"required":               []any{"id"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "integer"},
					"name": map[string]any{"type": "string"},
				},
			},
			"Pet": map[string]any{
				"allOf": []any{
					defRef("_ApiPet"),
					map[string]any{
						"type":     "object",
						"required": []any{"extra"},
						"properties": map[string]any{
							"name":  map[string]any{"type": "string", "maxLength": 10},
							"extra": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
}

func TestFlattenConflictedAllOfExtension(t *testing.T) {
	out, err := NewPipeline(FlattenConflictedAllOf()).Run(context.Background(), conflictedDocument())
	require.NoError(t, err)

	defs := nodewalk.Map(out[refs.Definitions])
	assert.Equal(t, []string{"Pet"}, nodewalk.SortedKeys(defs), "the renamed original is removed")
	assert.Equal(t, map[string]any{
		"type":        "object",
		"description": "original pet",
		"required":    []any{"extra", "id"},
		"properties": map[string]any{
			"id":    map[string]any{"type": "integer"},
			"name":  map[string]any{"type": "string", "maxLength": 10},
			"extra": map[string]any{"type": "string"},
		},
	}, defs["Pet"])
}

func TestFlattenConflictedAllOfComposition(t *testing.T) {
	doc := conflictedDocument()
	defs := doc[refs.Definitions].(map[string]any)
	defs["Tagged"] = map[string]any{"type": "object", "properties": map[string]any{"tag": map[string]any{"type": "string"}}}
	defs["Pet"] = map[string]any{"allOf": []any{defRef("Tagged"), defRef("_ApiPet")}}

	out, err := NewPipeline(FlattenConflictedAllOf()).Run(context.Background(), doc)
	require.NoError(t, err)

	pet := nodewalk.Map(nodewalk.Map(out[refs.Definitions])["Pet"])
	assert.Equal(t, []any{
		defRef("Tagged"),
		map[string]any{
			"type":     "object",
			"required": []any{"id"},
			"properties": map[string]any{
				"id":   map[string]any{"type": "integer"},
				"name": map[string]any{"type": "string"},
			},
		},
	}, pet["allOf"])
	assert.NotContains(t, out[refs.Definitions], "_ApiPet")
}

func TestFlattenConflictedAllOfKeepsReferencedOriginals(t *testing.T) {
	doc := conflictedDocument()
	doc["paths"].(map[string]any)["/legacy"] = map[string]any{"get": map[string]any{"responses": map[string]any{
		"200": map[string]any{"description": "ok", "schema": defRef("_ApiPet")},
	}}}

	out, err := NewPipeline(FlattenConflictedAllOf()).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, out[refs.Definitions], "_ApiPet")
	assert.NotContains(t, nodewalk.Map(nodewalk.Map(out[refs.Definitions])["Pet"]), "allOf")
}

func TestStripVendorFields(t *testing.T) {
	doc := map[string]any{
		"x-internal-owner": "team",
		"paths": map[string]any{
			"/pets": map[string]any{"get": map[string]any{
				"x-internal-route": "pets-v1",
				"x-public":         true,
				"responses":        map[string]any{},
			}},
		},
	}

	out, err := NewPipeline(StripVendorFields("x-internal-")).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.NotContains(t, out, "x-internal-owner")
	assert.Equal(t, map[string]any{"x-public": true, "responses": map[string]any{}},
		out["paths"].(map[string]any)["/pets"].(map[string]any)["get"])
	assert.Contains(t, doc, "x-internal-owner", "the input is not modified")

	_, err = NewPipeline(StripVendorFields("")).Run(context.Background(), doc)
	assert.True(t, errors.Is(err, oaserrors.ErrConfig))
}

func TestMarkDefinitions(t *testing.T) {
	doc := map[string]any{"definitions": map[string]any{
		"A": map[string]any{"type": "object"},
		"B": map[string]any{"type": "string"},
	}}

	out, err := NewPipeline(MarkDefinitions("x-generated", true)).Run(context.Background(), doc)
	require.NoError(t, err)
	for _, name := range []string{"A", "B"} {
		assert.Equal(t, true, nodewalk.Map(nodewalk.Map(out["definitions"])[name])["x-generated"])
	}

	_, err = NewPipeline(MarkDefinitions("", true)).Run(context.Background(), doc)
	assert.Error(t, err)
}

func TestPipelineOrderAndErrors(t *testing.T) {
	var order []string
	record := func(name string) Stage {
		return NewStage(name, func(_ context.Context, doc map[string]any) (map[string]any, error) {
			order = append(order, name)
			return doc, nil
		})
	}
	failing := NewStage("boom", func(context.Context, map[string]any) (map[string]any, error) {
		return nil, errors.New("exploded")
	})

	p := NewPipeline(record("first"), record("second"), failing, record("never")).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 4, p.Len())

	_, err := p.Run(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "postprocess: stage 3 (boom): exploded", err.Error())
	assert.Equal(t, []string{"first", "second"}, order)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPipeline(record("first")).Run(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTreeShakeStage(t *testing.T) {
	doc := conflictedDocument()
	doc[refs.Definitions].(map[string]any)["Unused"] = map[string]any{"type": "object"}

	out, err := NewPipeline(FlattenConflictedAllOf(), TreeShake(shaker.StrategyBottomUp)).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet"}, nodewalk.SortedKeys(nodewalk.Map(out[refs.Definitions])))

	_, err = NewPipeline(TreeShake("sideways")).Run(context.Background(), doc)
	assert.True(t, errors.Is(err, oaserrors.ErrConfig))
}
