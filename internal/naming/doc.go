// Package naming provides the case conversion and prefix rules used when
// the joiner renames a conflicting entry.
//
// A definition, parameter or response that collides with an entry already
// merged is renamed to "_" + PascalCase(basename of its source) + name, for
// example "Pet" from "store-api.yaml" becomes "_StoreApiPet".
//
// As an internal package, these functions are not part of the public API
// and may change without notice.
package naming
