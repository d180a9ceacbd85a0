// Package specbuild builds one consolidated Swagger 2.0 specification out of
// several specification fragments.
//
// The module is organized around four engines that operate on plain
// map[string]any document trees:
//
//   - joiner: merges N documents, renames conflicting definitions,
//     parameters and responses, and resolves references that point into
//     other documents until none remain.
//   - shaker: removes definitions, tags, parameters and responses that cannot
//     be reached from the paths of the document.
//   - checker: read-only analyses (operation identifiers, success response
//     schemas, dictionary vendor extensions).
//   - postprocess: ordered, opt-in stages applied to a merged document.
//
// Input documents are loaded through the source package, which hides whether
// a document came from a local file, a package directory, a remote URL or a
// split configuration file.
//
// # Quick Start
//
//	result, err := joiner.JoinWithOptions(ctx,
//		joiner.WithFilePaths("spec/generate.config.json", "extra.yaml"),
//		joiner.WithSetVersion("1.2.0"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	doc, err := shaker.Shake(result.Document, shaker.StrategyTopDown)
//
// Check a merged document:
//
//	reports, err := checker.Run(ctx, map[string]map[string]any{"api": doc}, checker.All()...)
//	if len(reports) > 0 {
//		// findings
//	}
package specbuild
