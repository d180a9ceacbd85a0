package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/specbuild/checker"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/joiner"
)

type checkInput struct {
	Specs    []specInput `json:"specs"              jsonschema:"Documents to check; each is checked on its own"`
	Checkers []string    `json:"checkers,omitempty" jsonschema:"Checkers to run: operation-id, multi-success, dictionary (default all)"`
}

type checkFinding struct {
	Message   string   `json:"message"`
	Path      string   `json:"path,omitempty"`
	Operation string   `json:"operation,omitempty"`
	Details   []string `json:"details,omitempty"`
	Node      string   `json:"node,omitempty"`
}

type checkReport struct {
	Spec     string         `json:"spec"`
	Findings []checkFinding `json:"findings"`
}

type checkOutput struct {
	SpecCount    int           `json:"spec_count"`
	FindingCount int           `json:"finding_count"`
	Passed       bool          `json:"passed"`
	Reports      []checkReport `json:"reports,omitempty"`
	Summary      string        `json:"summary"`
}

func handleCheck(ctx context.Context, _ *mcp.CallToolRequest, input checkInput) (*mcp.CallToolResult, checkOutput, error) {
	checkers := checker.All()
	if len(input.Checkers) > 0 {
		var err error
		if checkers, err = checker.ByName(input.Checkers...); err != nil {
			return errResult(err), checkOutput{}, nil
		}
	}

	if _, err := joinOptions(input.Specs); err != nil {
		return errResult(err), checkOutput{}, nil
	}

	docs := make(map[string]map[string]any, len(input.Specs))
	for i, s := range input.Specs {
		opt, err := s.option(i)
		if err != nil {
			return errResult(fmt.Errorf("spec[%d]: %w", i, err)), checkOutput{}, nil
		}
		result, err := joiner.JoinWithOptions(ctx, opt,
			joiner.WithIgnoreConflict(cfg.IgnoreConflict),
			joiner.WithAllowDanglingReferences(true),
			joiner.WithSourceOptions(sourceOptions()...),
		)
		if err != nil {
			return errResult(fmt.Errorf("spec[%d]: %w", i, err)), checkOutput{}, nil
		}
		docs[s.name(i)] = result.Document
	}

	reports, err := checker.Run(ctx, docs, checkers...)
	if err != nil {
		return errResult(err), checkOutput{}, nil
	}

	out := checkOutput{SpecCount: len(input.Specs), Passed: len(reports) == 0}
	out.Reports = makeSlice[checkReport](len(reports))
	for _, name := range nodewalk.SortedKeys(reports) {
		report := checkReport{Spec: name, Findings: make([]checkFinding, 0, len(reports[name]))}
		for _, f := range reports[name] {
			finding := checkFinding{Message: f.Message, Path: f.Path, Details: f.Details, Node: f.Node}
			if f.Operation != nil {
				finding.Operation = f.Operation.String()
			}
			report.Findings = append(report.Findings, finding)
		}
		out.FindingCount += len(report.Findings)
		out.Reports = append(out.Reports, report)
	}
	out.Summary = checkSummary(out, checkers)

	return nil, out, nil
}

func checkSummary(out checkOutput, checkers []checker.Checker) string {
	names := make([]string, len(checkers))
	for i, c := range checkers {
		names[i] = c.Name()
	}
	ran := strings.Join(names, ", ")
	if out.Passed {
		return fmt.Sprintf("Checked %s with %s: no findings.", formatCount(out.SpecCount, "spec"), ran)
	}
	return fmt.Sprintf("Checked %s with %s: %s in %s.", formatCount(out.SpecCount, "spec"), ran,
		formatCount(out.FindingCount, "finding"), formatCount(len(out.Reports), "spec"))
}
