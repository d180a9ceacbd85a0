// Package source provides a uniform, lazily parsed view over one input
// Swagger 2.0 document.
//
// A target is opened once with Open (or a Loader) and the variant is chosen
// from the target descriptor at that moment:
//
//   - LocalFile: a YAML or JSON file on disk, either found directly or
//     resolved through the search paths and node_modules directories
//     (Kind LocalPath or Package).
//   - Remote: an HTTP(S) URL. The payload is decoded as JSON first and as
//     YAML when that fails.
//   - Split: a JSON configuration listing products, additional specs and a
//     swagger template. It expands into its constituent documents.
//   - InMemory: an already decoded document.
//
// Every variant exposes the envelope, tags, parameters, responses,
// definitions and paths of the document. Getters parse the document on
// first use; Parse may also be called explicitly.
//
// Outer references ("common.yaml#/definitions/Pet") found in a loaded
// document are rewritten relative to the document's own location, so that
// the same target is always named by the same string: an absolute file path
// or an absolute URL.
//
// # Example
//
//	acc, err := source.Open(ctx, "api/petstore.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defs, err := acc.Definitions(ctx)
package source
