package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/specbuild/internal/fileutil"
	"github.com/erraggy/specbuild/internal/output"
	"github.com/erraggy/specbuild/joiner"
	"github.com/erraggy/specbuild/postprocess"
	"github.com/erraggy/specbuild/shaker"
)

type buildInput struct {
	Specs            []specInput `json:"specs"                       jsonschema:"Documents to merge, in merge order"`
	SetVersion       string      `json:"set_version,omitempty"       jsonschema:"Overwrite info.version of the result"`
	IgnoreConflict   *bool       `json:"ignore_conflict,omitempty"   jsonschema:"Let later specs override operations on the same path and method (default from SPECBUILD_IGNORE_CONFLICT)"`
	Deduplicate      bool        `json:"deduplicate,omitempty"       jsonschema:"Keep one entry when colliding entries have identical content"`
	TreeShake        string      `json:"tree_shake,omitempty"        jsonschema:"Remove unreachable definitions: bottom-up or top-down (default from SPECBUILD_SHAKE_STRATEGY)"`
	FlattenConflicts bool        `json:"flatten_conflicts,omitempty" jsonschema:"Flatten allOf compositions over conflict-renamed definitions"`
	StripPrefixes    []string    `json:"strip_prefixes,omitempty"    jsonschema:"Remove every field whose name starts with one of these prefixes"`
	Format           string      `json:"format,omitempty"            jsonschema:"Output format: yaml or json (default yaml)"`
	Output           string      `json:"output,omitempty"            jsonschema:"File path to write the document. If omitted the result is returned inline."`
}

type buildConflict struct {
	Collection string `json:"collection"`
	Name       string `json:"name"`
	Renamed    string `json:"renamed"`
	Source     string `json:"source"`
}

type buildOutput struct {
	SpecCount          int             `json:"spec_count"`
	PathCount          int             `json:"path_count"`
	DefinitionCount    int             `json:"definition_count"`
	Conflicts          []buildConflict `json:"conflicts,omitempty"`
	Warnings           []string        `json:"warnings,omitempty"`
	RemovedDefinitions []string        `json:"removed_definitions,omitempty"`
	WrittenTo          string          `json:"written_to,omitempty"`
	Document           string          `json:"document,omitempty"`
	Summary            string          `json:"summary"`
}

func handleBuild(ctx context.Context, _ *mcp.CallToolRequest, input buildInput) (*mcp.CallToolResult, buildOutput, error) {
	// Apply config defaults.
	ignoreConflict := cfg.IgnoreConflict
	if input.IgnoreConflict != nil {
		ignoreConflict = *input.IgnoreConflict
	}
	if input.TreeShake == "" {
		input.TreeShake = cfg.ShakeStrategy
	}
	if input.Format == "" {
		input.Format = output.FormatYAML
	}
	if err := output.ValidateFormat(input.Format); err != nil {
		return errResult(err), buildOutput{}, nil
	}

	opts, err := joinOptions(input.Specs)
	if err != nil {
		return errResult(err), buildOutput{}, nil
	}
	opts = append(opts,
		joiner.WithSetVersion(input.SetVersion),
		joiner.WithIgnoreConflict(ignoreConflict),
		joiner.WithDeduplicateIdentical(input.Deduplicate),
	)

	result, err := joiner.JoinWithOptions(ctx, opts...)
	if err != nil {
		return errResult(err), buildOutput{}, nil
	}

	doc := result.Document
	if input.FlattenConflicts || len(input.StripPrefixes) > 0 {
		var stages []postprocess.Stage
		if input.FlattenConflicts {
			stages = append(stages, postprocess.FlattenConflictedAllOf())
		}
		if len(input.StripPrefixes) > 0 {
			stages = append(stages, postprocess.StripVendorFields(input.StripPrefixes...))
		}
		if doc, err = postprocess.NewPipeline(stages...).Run(ctx, doc); err != nil {
			return errResult(err), buildOutput{}, nil
		}
	}

	out := buildOutput{SpecCount: len(input.Specs)}
	if input.TreeShake != "" {
		strategy, err := shaker.ParseStrategy(input.TreeShake)
		if err != nil {
			return errResult(err), buildOutput{}, nil
		}
		shaken, err := shaker.ShakeWithResult(doc, strategy)
		if err != nil {
			return errResult(err), buildOutput{}, nil
		}
		doc = shaken.Document
		out.RemovedDefinitions = shaken.RemovedDefinitions
	}

	paths, _ := doc["paths"].(map[string]any)
	defs, _ := doc["definitions"].(map[string]any)
	out.PathCount = len(paths)
	out.DefinitionCount = len(defs)

	out.Conflicts = makeSlice[buildConflict](len(result.Conflicts))
	for _, c := range result.Conflicts {
		out.Conflicts = append(out.Conflicts, buildConflict{
			Collection: c.Collection,
			Name:       c.OriginalName,
			Renamed:    c.RenamedName,
			Source:     c.Source,
		})
	}
	out.Warnings = makeSlice[string](len(result.Warnings))
	out.Warnings = append(out.Warnings, result.Warnings.Strings()...)
	out.Summary = buildSummary(out)

	data, err := output.Marshal(doc, input.Format)
	if err != nil {
		return errResult(err), buildOutput{}, nil
	}
	if input.Output != "" {
		if err := fileutil.WriteFile(input.Output, data); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), buildOutput{}, nil
		}
		out.WrittenTo = input.Output
	} else {
		out.Document = string(data)
	}

	return nil, out, nil
}

func buildSummary(out buildOutput) string {
	summary := fmt.Sprintf("Merged %s into a document with %s and %s.",
		formatCount(out.SpecCount, "spec"), formatCount(out.PathCount, "path"), formatCount(out.DefinitionCount, "definition"))
	if len(out.Conflicts) > 0 {
		summary += " " + formatCount(len(out.Conflicts), "conflict") + " renamed."
	}
	if len(out.RemovedDefinitions) > 0 {
		summary += " " + formatCount(len(out.RemovedDefinitions), "unreachable definition") + " removed."
	}
	if len(out.Warnings) > 0 {
		summary += " " + formatCount(len(out.Warnings), "warning") + "."
	}
	return summary
}
