// Package joiner merges Swagger 2.0 documents into one and resolves every
// reference that crosses a document boundary.
//
// # Quick Start
//
//	result, err := joiner.JoinWithOptions(ctx,
//		joiner.WithFilePaths("pets.yaml", "store.yaml"),
//		joiner.WithSetVersion("1.4.0"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, c := range result.Conflicts {
//		fmt.Printf("%s %s renamed to %s\n", c.Collection, c.OriginalName, c.RenamedName)
//	}
//
// Or create a reusable Joiner:
//
//	j := joiner.New(joiner.DefaultConfig())
//	result, err := j.JoinPaths(ctx, []string{"pets.yaml", "store.yaml"})
//
// # Merge Rules
//
// Documents are merged in the order they are given:
//
//   - Envelope: root fields of later documents win; "info" is merged field
//     by field.
//   - Tags: matched by name, fields of later tags win.
//   - Parameters, responses and definitions: an entry whose name is already
//     taken is renamed to "_" + PascalCase(source basename) + name and
//     marked with the x-generated-from-conflict extension. References to it
//     from its own document follow the new name.
//   - Paths: the same method on the same path in two documents is a
//     *oaserrors.ConflictError unless IgnoreConflict is set, in which case
//     the later operation wins and a warning is logged.
//
// Split configurations are expanded into their constituent documents
// before merging.
//
// # Outer References
//
// After merging, every reference that names another document
// ("common.yaml#/definitions/Error") is resolved: the target entry is
// copied into the merged document under the rename rule and the
// reference is rewritten to point at the copy. References inside the copy
// keep resolving against the document it came from. This repeats until no
// outer reference is left. Each outer reference is resolved once per merge,
// which also ends reference cycles across documents.
//
// A bare document reference with no fragment ("https://host/api.yaml")
// stands for the first definition of that document.
//
// The merged document never contains outer references, and every inner
// reference to a definition, parameter or response points at an existing
// entry; a merge that cannot guarantee this fails with a
// *oaserrors.ReferenceError.
package joiner
