// Package severity provides the severity levels attached to checker
// findings and merge warnings.
//
// The levels are ordered from least to most severe:
// Info < Warning < Error < Critical
package severity

// Severity indicates how serious a checker finding or merge warning is.
type Severity int

const (
	// SeverityError marks a finding that makes the built document wrong for
	// its consumers, such as a duplicated operationId.
	SeverityError Severity = iota

	// SeverityWarning marks a merge event worth reviewing, such as an
	// overridden operation.
	SeverityWarning

	// SeverityInfo marks a notice, such as a renamed or deduplicated entry.
	SeverityInfo

	// SeverityCritical marks a finding that stops the document from being
	// used at all.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// rank orders the levels by seriousness; the constant values follow
// declaration order instead.
func (s Severity) rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}
