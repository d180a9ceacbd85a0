// Package options provides validation shared by the entry points that take
// alternative inputs.
package options

import (
	"fmt"
	"strings"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
)

// RequireOne ensures exactly one of the named inputs is non-empty.
// option names the group in the returned ConfigError.
func RequireOne(option string, inputs map[string]string) error {
	names := nodewalk.SortedKeys(inputs)
	var set []string
	for _, name := range names {
		if inputs[name] != "" {
			set = append(set, name)
		}
	}
	if len(set) == 1 {
		return nil
	}

	msg := fmt.Sprintf("exactly one of %s must be set", strings.Join(names, ", "))
	if len(set) > 1 {
		msg += fmt.Sprintf(", got %s", strings.Join(set, " and "))
	}
	return &oaserrors.ConfigError{Option: option, Message: msg}
}
