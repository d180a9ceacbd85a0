package issues

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erraggy/specbuild/internal/severity"
)

func TestIssueString(t *testing.T) {
	tests := []struct {
		name  string
		issue Issue
		want  string
	}{
		{
			name:  "path and message",
			issue: Issue{Path: "definitions.Pet", Message: "broken", Severity: severity.SeverityError},
			want:  "✗ definitions.Pet: broken",
		},
		{
			name: "with operation",
			issue: Issue{
				Path:      "paths./a.get",
				Message:   "missing operationId",
				Severity:  severity.SeverityError,
				Operation: &Operation{Method: "get", Path: "/a"},
			},
			want: "✗ paths./a.get (get /a): missing operationId",
		},
		{
			name: "with details",
			issue: Issue{
				Path:     "paths",
				Message:  `duplicated operationId "x"`,
				Severity: severity.SeverityWarning,
				Details:  []string{"get /b", "post /c"},
			},
			want: "⚠ paths: duplicated operationId \"x\"\n    - get /b\n    - post /c",
		},
		{
			name:  "without path",
			issue: Issue{Message: "note", Severity: severity.SeverityInfo},
			want:  "ℹ note",
		},
		{
			name:  "empty operation is ignored",
			issue: Issue{Path: "paths", Message: "m", Severity: severity.SeverityCritical, Operation: &Operation{}},
			want:  "✗ paths: m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.issue.String())
		})
	}
}

func TestIssueSeveritySymbols(t *testing.T) {
	tests := []struct {
		severity       severity.Severity
		expectedSymbol string
	}{
		{severity.SeverityError, "✗"},
		{severity.SeverityCritical, "✗"},
		{severity.SeverityWarning, "⚠"},
		{severity.SeverityInfo, "ℹ"},
		{severity.Severity(-1), "?"},
		{severity.Severity(999), "?"},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			result := Issue{Path: "test.path", Message: "Test message", Severity: tt.severity}.String()
			assert.True(t, strings.HasPrefix(result, tt.expectedSymbol), "got: %s", result)
		})
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{}, ""},
		{Operation{Method: "get", Path: "/pets"}, "get /pets"},
		{Operation{Method: "post", Path: "/pets", OperationID: "createPet"}, "post /pets [createPet]"},
		{Operation{OperationID: "orphan"}, "[orphan]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
			assert.Equal(t, tt.want == "", tt.op.IsEmpty())
		})
	}
}

func TestNodePath(t *testing.T) {
	assert.Equal(t, "", NodePath())
	assert.Equal(t, "paths", NodePath("paths"))
	assert.Equal(t, "paths./pets/{id}.get", NodePath("paths", "/pets/{id}", "get"))
}
