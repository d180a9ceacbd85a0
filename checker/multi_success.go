package checker

import (
	"fmt"

	"github.com/erraggy/specbuild/internal/httputil"
	"github.com/erraggy/specbuild/internal/issues"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/internal/severity"
	"github.com/erraggy/specbuild/refs"
)

const noContent = "no-content"

// MultiSuccessChecker reports operations whose success responses return
// different schemas.
//
// A success response is one with a 2xx status (or "2XX"). Its schema is
// identified by its $ref; an inline schema counts as "custom-<status>" and a
// missing one as "no-content". A response given as a reference to the
// responses collection is looked up first.
type MultiSuccessChecker struct{}

// Name implements Checker.
func (MultiSuccessChecker) Name() string { return "multi-success" }

// Check implements Checker.
func (MultiSuccessChecker) Check(doc map[string]any) Report {
	shared := nodewalk.Map(doc[refs.Responses])

	var report Report
	for _, op := range operations(doc) {
		responses := nodewalk.Map(op.node["responses"])
		var details []string
		distinct := make(map[string]bool)
		for _, status := range nodewalk.SortedKeys(responses) {
			if !httputil.IsSuccess(status) {
				continue
			}
			schema := successSchema(status, responses[status], shared)
			distinct[schema] = true
			details = append(details, fmt.Sprintf("%s: %s", status, schema))
		}
		if len(distinct) < 2 {
			continue
		}
		report = append(report, Finding{
			Path:      issues.NodePath("paths", op.path, op.method, "responses"),
			Message:   fmt.Sprintf("%d different success responses for %s %s", len(distinct), op.method, op.path),
			Details:   details,
			Node:      nodewalk.String(op.node["operationId"]),
			Severity:  severity.SeverityError,
			Operation: &Operation{Method: op.method, Path: op.path, OperationID: nodewalk.String(op.node["operationId"])},
		})
	}
	return report
}

// successSchema identifies the schema returned by the response.
func successSchema(status string, node any, shared map[string]any) string {
	response := nodewalk.Map(node)
	if r := nodewalk.String(response[refs.RefKey]); r != "" {
		if name := refs.Name(r, refs.Responses); name != "" {
			response = nodewalk.Map(shared[name])
		}
	}
	raw, ok := response["schema"]
	if !ok || raw == nil {
		return noContent
	}
	if r := nodewalk.String(nodewalk.Map(raw)[refs.RefKey]); r != "" {
		return r
	}
	return "custom-" + status
}
