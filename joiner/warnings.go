package joiner

import (
	"fmt"
	"strings"

	"github.com/erraggy/specbuild/internal/severity"
	"github.com/erraggy/specbuild/refs"
)

// WarningCategory identifies the type of warning.
type WarningCategory string

const (
	// WarnPathOverride indicates an operation replaced an earlier one on
	// the same path and method.
	WarnPathOverride WarningCategory = "path_override"
	// WarnEntryRenamed indicates an entry was renamed because its name was taken.
	WarnEntryRenamed WarningCategory = "entry_renamed"
	// WarnEntryDeduplicated indicates an entry identical to an existing one was dropped.
	WarnEntryDeduplicated WarningCategory = "entry_deduplicated"
	// WarnDanglingReference indicates a reference to an entry the merged
	// document does not hold.
	WarnDanglingReference WarningCategory = "dangling_reference"
)

// JoinWarning represents a non-fatal event of a merge.
type JoinWarning struct {
	// Category identifies the type of warning.
	Category WarningCategory
	// Path is the location of the affected element ("definitions.Pet", "paths./pets").
	Path string
	// Message is a human-readable description.
	Message string
	// SourceFile is the document that triggered the warning.
	SourceFile string
	// Severity indicates warning severity.
	Severity severity.Severity
	// Context provides additional details.
	Context map[string]any
}

// String returns the warning message.
func (w *JoinWarning) String() string {
	return w.Message
}

// NewPathOverrideWarning creates a warning for operations overridden on url.
func NewPathOverrideWarning(url string, methods []string, sourceFile string) *JoinWarning {
	plural := ""
	if len(methods) > 1 {
		plural = "s"
	}
	return &JoinWarning{
		Category:   WarnPathOverride,
		Path:       "paths." + url,
		Message:    fmt.Sprintf("the path %q from %s overrides the method%s %s", url, sourceFile, plural, strings.Join(methods, ", ")),
		SourceFile: sourceFile,
		Severity:   severity.SeverityWarning,
		Context: map[string]any{
			"url":     url,
			"methods": methods,
		},
	}
}

// NewEntryRenamedWarning creates a warning for a conflict rename.
func NewEntryRenamedWarning(c ConflictRecord) *JoinWarning {
	from := ""
	if c.Source != "" {
		from = fmt.Sprintf(" from %q", c.Source)
	}
	return &JoinWarning{
		Category:   WarnEntryRenamed,
		Path:       c.Collection + "." + c.OriginalName,
		Message:    fmt.Sprintf("the %s %q%s is conflicting, %q will be used instead", c.Collection, c.OriginalName, from, c.RenamedName),
		SourceFile: c.Source,
		Severity:   severity.SeverityInfo,
		Context: map[string]any{
			"original_name": c.OriginalName,
			"new_name":      c.RenamedName,
			"collection":    c.Collection,
		},
	}
}

// NewEntryDeduplicatedWarning creates a warning for a dropped identical entry.
func NewEntryDeduplicatedWarning(collection, name, sourceFile string) *JoinWarning {
	return &JoinWarning{
		Category:   WarnEntryDeduplicated,
		Path:       collection + "." + name,
		Message:    fmt.Sprintf("the %s %q from %s is identical to the existing one and was not duplicated", collection, name, sourceFile),
		SourceFile: sourceFile,
		Severity:   severity.SeverityInfo,
		Context: map[string]any{
			"collection": collection,
		},
	}
}

// NewDanglingReferenceWarning creates a warning for a reference to a
// missing entry.
func NewDanglingReferenceWarning(r refs.Reference) *JoinWarning {
	return &JoinWarning{
		Category: WarnDanglingReference,
		Path:     r.Type + "." + r.Name,
		Message:  fmt.Sprintf("the reference %s points to no entry of the merged document", r),
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"ref": r.String(),
		},
	}
}

// JoinWarnings is a collection of JoinWarning.
type JoinWarnings []*JoinWarning

// Strings returns the warning messages.
func (ws JoinWarnings) Strings() []string {
	result := make([]string, len(ws))
	for i, w := range ws {
		if w == nil {
			continue
		}
		result[i] = w.String()
	}
	return result
}

// ByCategory filters warnings by category.
func (ws JoinWarnings) ByCategory(cat WarningCategory) JoinWarnings {
	var result JoinWarnings
	for _, w := range ws {
		if w.Category == cat {
			result = append(result, w)
		}
	}
	return result
}

// AtLeast returns the warnings at least as severe as min.
func (ws JoinWarnings) AtLeast(min severity.Severity) JoinWarnings {
	var result JoinWarnings
	for _, w := range ws {
		if w.Severity.AtLeast(min) {
			result = append(result, w)
		}
	}
	return result
}

// Summary returns a formatted summary of warnings.
func (ws JoinWarnings) Summary() string {
	if len(ws) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d warning(s):\n", len(ws))
	for _, w := range ws {
		sb.WriteString("  - ")
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
