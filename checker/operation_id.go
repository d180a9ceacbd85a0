package checker

import (
	"fmt"

	"github.com/erraggy/specbuild/internal/issues"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/internal/severity"
)

// OperationIDChecker reports operations without an operationId and
// operationIds shared by several operations.
type OperationIDChecker struct{}

// Name implements Checker.
func (OperationIDChecker) Name() string { return "operation-id" }

// Check implements Checker. Missing operationIds come first, in path then
// method order, followed by one finding per duplicated operationId.
func (OperationIDChecker) Check(doc map[string]any) Report {
	var report Report
	byID := make(map[string][]operationRef)
	var ids []string

	for _, op := range operations(doc) {
		id := nodewalk.String(op.node["operationId"])
		if id == "" {
			report = append(report, Finding{
				Path:      issues.NodePath("paths", op.path, op.method),
				Message:   "missing operationId",
				Severity:  severity.SeverityError,
				Operation: &Operation{Method: op.method, Path: op.path},
			})
			continue
		}
		if _, seen := byID[id]; !seen {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], op)
	}

	for _, id := range ids {
		ops := byID[id]
		if len(ops) < 2 {
			continue
		}
		details := make([]string, len(ops))
		for i, op := range ops {
			details[i] = fmt.Sprintf("%s %s", op.method, op.path)
		}
		report = append(report, Finding{
			Path:     "paths",
			Message:  fmt.Sprintf("duplicated operationId %q", id),
			Details:  details,
			Node:     id,
			Severity: severity.SeverityError,
		})
	}
	return report
}
