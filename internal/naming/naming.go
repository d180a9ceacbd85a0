package naming

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BasePrefix is the fallback conflict prefix used when the source is unknown
// or when the source-derived prefix would prefix a name with itself.
const BasePrefix = "Base"

// titleCaser upper-cases the first letter of a word and lower-cases the rest.
var titleCaser = cases.Title(language.Und)

// ToPascalCase converts a string to PascalCase.
// Words are split on any non-alphanumeric rune and on lower-to-upper case
// boundaries; every word is title-cased.
// Example: "user_profile" -> "UserProfile"
// Example: "store-API" -> "StoreApi"
// Example: "petStore" -> "PetStore"
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(titleCaser.String(w))
	}
	return b.String()
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

// SourceBaseName returns the file name of source without its extension.
// source may be a file path, a package specifier or a URL.
func SourceBaseName(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	base := path.Base(strings.ReplaceAll(source, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// ConflictPrefix computes the prefix for a conflicting entry named name that
// comes from source. It is "_" + PascalCase(basename of source) unless name
// already starts with that PascalCase form or the source is unknown, in which
// case "_Base" is used.
func ConflictPrefix(name, source string) string {
	prefix := ToPascalCase(SourceBaseName(source))
	if prefix == "" || strings.HasPrefix(name, prefix) {
		prefix = BasePrefix
	}
	return "_" + prefix
}

// ConflictName returns the renamed form of name for an entry from source.
func ConflictName(name, source string) string {
	return ConflictPrefix(name, source) + name
}
