// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// RunID validates a run identifier. It becomes a URL path segment, so it must
// be non-empty and free of slashes and whitespace.
func RunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("run id %q must not contain slashes", id)
	}
	if strings.IndexFunc(id, isSpace) >= 0 {
		return fmt.Errorf("run id %q must not contain whitespace", id)
	}
	return nil
}

// RunIDField returns a criterio validator for run identifiers.
func RunIDField(field, id string) error {
	return criterio.Run(field, id, RunID)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
