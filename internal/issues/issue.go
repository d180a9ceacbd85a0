// Package issues provides the finding type reported by the checkers.
package issues

import (
	"fmt"
	"strings"

	"github.com/erraggy/specbuild/internal/severity"
)

// Issue is a single finding of a checker.
type Issue struct {
	// Path is the dotted path to the node the finding is about
	// (e.g., "paths./pets.get", "definitions.Pet")
	Path string
	// Message is a human-readable description of the finding
	Message string
	// Details lists supporting lines, such as the operations sharing an
	// operationId or the reference chains leading to a definition
	Details []string
	// Node names the document node the finding is attached to (a definition
	// name or an operationId)
	Node string
	// Severity indicates the severity level of the finding
	Severity severity.Severity
	// Operation identifies the operation the finding relates to, if any
	Operation *Operation
}

// String returns a formatted representation of the issue.
// Uses different symbols based on severity level:
// - "✗" for Error or Critical severity
// - "⚠" for Warning severity
// - "ℹ" for Info severity
func (i Issue) String() string {
	var symbol string
	switch i.Severity {
	case severity.SeverityError, severity.SeverityCritical:
		symbol = "✗"
	case severity.SeverityWarning:
		symbol = "⚠"
	case severity.SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}

	location := i.Path
	if i.Operation != nil && !i.Operation.IsEmpty() {
		location = fmt.Sprintf("%s (%s)", i.Path, i.Operation)
	}

	var sb strings.Builder
	if location != "" {
		fmt.Fprintf(&sb, "%s %s: %s", symbol, location, i.Message)
	} else {
		fmt.Fprintf(&sb, "%s %s", symbol, i.Message)
	}
	for _, d := range i.Details {
		sb.WriteString("\n    - ")
		sb.WriteString(d)
	}
	return sb.String()
}

// Operation identifies an operation of the document.
type Operation struct {
	// Method is the lower-case HTTP method
	Method string
	// Path is the URL template of the path item
	Path string
	// OperationID is the operationId, if defined
	OperationID string
}

// String returns "<method> <path>", followed by the operationId when set.
func (o Operation) String() string {
	if o.IsEmpty() {
		return ""
	}
	s := strings.TrimSpace(o.Method + " " + o.Path)
	if o.OperationID != "" {
		s = strings.TrimSpace(fmt.Sprintf("%s [%s]", s, o.OperationID))
	}
	return s
}

// IsEmpty returns true if the operation carries no information.
func (o Operation) IsEmpty() bool {
	return o.Method == "" && o.Path == "" && o.OperationID == ""
}

// NodePath joins segments into a dotted node path.
func NodePath(segments ...string) string {
	return strings.Join(segments, ".")
}
