// Package oaserrors provides structured error types for the specbuild library.
//
// Import path: github.com/erraggy/specbuild/oaserrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between the failure categories of a build.
//
// # Error Types
//
//   - [ParseError]: a document could not be loaded (I/O failure, HTTP status, unparsable content)
//   - [ReferenceError]: a $ref could not be resolved, or dangles after a merge
//   - [ConflictError]: two documents define the same method on the same path
//   - [ConfigError]: invalid options or an invalid split configuration file
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrReference]: Matches any [ReferenceError]
//   - [ErrConflict]: Matches any [ConflictError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// Checker findings are never errors; they are returned as data by the checker package.
package oaserrors
