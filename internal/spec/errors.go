package spec

import (
	"fmt"
	"strings"
)

// ParameterOverriddenError reports that composing specifications would make
// one named parameter overwrite another.
type ParameterOverriddenError struct {
	// Names lists every colliding parameter name, in order of first use.
	Names []string

	// Types lists the Go type of every composed specification, in order.
	Types []string
}

func (e *ParameterOverriddenError) Error() string {
	return fmt.Sprintf("parameters overridden (%s) while combining specifications of types %s",
		strings.Join(e.Names, ", "), strings.Join(e.Types, ", "))
}
