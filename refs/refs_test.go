package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	tests := []struct {
		ref  string
		want Reference
		ok   bool
	}{
		{"#/definitions/Pet", Reference{Type: Definitions, Name: "Pet"}, true},
		{"#/parameters/limit", Reference{Type: Parameters, Name: "limit"}, true},
		{"#/definitions/Pet/properties/id", Reference{Type: Definitions, Name: "Pet"}, true},
		{"#/definitions/a~1b~0c", Reference{Type: Definitions, Name: "a/b~c"}, true},
		{"#/definitions", Reference{}, false},
		{"#/definitions/", Reference{}, false},
		{"other.yaml#/definitions/Pet", Reference{}, false},
		{"", Reference{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := ParseLocal(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceString(t *testing.T) {
	assert.Equal(t, "#/definitions/Pet", DefinitionRef("Pet"))
	assert.Equal(t, "#/parameters/limit", ParameterRef("limit"))
	assert.Equal(t, "#/responses/NotFound", ResponseRef("NotFound"))
	assert.Equal(t, "#/definitions/a~1b", DefinitionRef("a/b"))

	r, ok := ParseLocal(DefinitionRef("a/b"))
	require.True(t, ok)
	assert.Equal(t, "a/b", r.Name)
}

func TestParseOuter(t *testing.T) {
	tests := []struct {
		ref  string
		want OuterReference
		ok   bool
	}{
		{"common.yaml#/definitions/Pet", OuterReference{DocumentPath: "common.yaml", InnerPath: "/definitions/Pet"}, true},
		{"https://example.com/api.yaml", OuterReference{DocumentPath: "https://example.com/api.yaml"}, true},
		{"@scope/pkg/spec.yaml#/responses/Err", OuterReference{DocumentPath: "@scope/pkg/spec.yaml", InnerPath: "/responses/Err"}, true},
		{"#/definitions/Pet", OuterReference{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := ParseOuter(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Equal(t, tt.ref, got.String())
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.yaml"))
	assert.True(t, IsURL("http://example.com/a.yaml"))
	assert.False(t, IsURL("./a.yaml"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Pet", Name("#/definitions/Pet", Definitions))
	assert.Equal(t, "", Name("#/parameters/Pet", Definitions))
	assert.Equal(t, "", Name("x.yaml#/definitions/Pet", Definitions))
}

func testDocument() map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"$ref": "#/parameters/limit"},
					},
					"responses": map[string]any{
						"200": map[string]any{
							"schema": map[string]any{"$ref": "#/definitions/Pets"},
						},
						"404": map[string]any{"$ref": "errors.yaml#/responses/NotFound"},
					},
				},
			},
		},
		"definitions": map[string]any{
			"Pets": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/definitions/Pet"},
			},
			"Pet": map[string]any{
				"allOf": []any{
					map[string]any{"$ref": "base.yaml#/definitions/Base"},
					map[string]any{"$ref": "#/definitions/Pets"},
				},
			},
			"Other": map[string]any{"$ref": "base.yaml#/definitions/Base"},
		},
	}
}

func TestScan(t *testing.T) {
	got := Scan(testDocument())
	assert.Equal(t, []Reference{
		{Type: Definitions, Name: "Pets"},
		{Type: Definitions, Name: "Pet"},
		{Type: Parameters, Name: "limit"},
	}, got)
}

func TestScanNames(t *testing.T) {
	assert.Equal(t, []string{"Pets", "Pet"}, ScanNames(testDocument(), Definitions))
	assert.Equal(t, []string{"limit"}, ScanNames(testDocument(), Parameters))
	assert.Empty(t, ScanNames(testDocument(), Tags))
}

func TestScanOuter(t *testing.T) {
	got := ScanOuter(testDocument())
	assert.Equal(t, []OuterReference{
		{DocumentPath: "base.yaml", InnerPath: "/definitions/Base"},
		{DocumentPath: "errors.yaml", InnerPath: "/responses/NotFound"},
	}, got)
}

func TestQualify(t *testing.T) {
	node := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"$ref": "#/definitions/A"},
			"b": map[string]any{"$ref": "other.yaml#/definitions/B"},
		},
	}

	out := Qualify(node, "/abs/dir/common.yaml").(map[string]any)
	props := out["properties"].(map[string]any)
	assert.Equal(t, "/abs/dir/common.yaml#/definitions/A", props["a"].(map[string]any)["$ref"])
	assert.Equal(t, "other.yaml#/definitions/B", props["b"].(map[string]any)["$ref"])

	// input untouched
	assert.Equal(t, "#/definitions/A", node["properties"].(map[string]any)["a"].(map[string]any)["$ref"])
}

func TestRewriteIgnoresNonStringRefs(t *testing.T) {
	node := map[string]any{"$ref": 42, "x": map[string]any{"$ref": "#/definitions/A"}}
	out := Rewrite(node, func(ref string) (string, bool) {
		return ref + "2", true
	}).(map[string]any)
	assert.Equal(t, 42, out["$ref"])
	assert.Equal(t, "#/definitions/A2", out["x"].(map[string]any)["$ref"])
}

func TestRelocate(t *testing.T) {
	tests := []struct {
		inner  string
		name   string
		want   string
		wantOK bool
	}{
		{"#/definitions/Pet", "_ApiPet", "#/definitions/_ApiPet", true},
		{"/definitions/Pet", "_ApiPet", "#/definitions/_ApiPet", true},
		{"#/definitions/Pet/properties/id", "Animal", "#/definitions/Animal/properties/id", true},
		{"#/parameters/limit", "a/b", "#/parameters/a~1b", true},
		{"#/definitions", "X", "", false},
		{"", "X", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.inner, func(t *testing.T) {
			got, ok := Relocate(tt.inner, tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
