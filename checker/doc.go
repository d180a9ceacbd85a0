// Package checker runs read-only analyses over a merged document.
//
// Each Checker inspects one document and returns a Report. Checkers never
// modify the document and never fail on a malformed but parseable one: what
// they cannot make sense of is reported as a finding or skipped.
//
// The provided checkers are:
//
//   - OperationIDChecker: every operation has an operationId, and no
//     operationId is used twice.
//   - MultiSuccessChecker: the 2xx responses of an operation all return the
//     same schema.
//   - DictionaryChecker: every dictionary declared by a field annotation
//     (x-dictionary-name, x-field-type) is embedded in the reply definitions
//     that reach the field.
//
// Run applies a set of checkers to several documents concurrently:
//
//	reports, err := checker.Run(ctx, map[string]map[string]any{"api": doc}, checker.All()...)
//	if err != nil {
//		return err
//	}
//	for name, report := range reports {
//		fmt.Println(name, report)
//	}
//
// An empty map means no checker found anything.
package checker
