package pipeline

import (
	"fmt"
	"strings"
)

// ExternalCommandError is returned when the external command exits
// non-zero. Stderr holds its error stream verbatim.
type ExternalCommandError struct {
	Command  []string
	ExitCode int
	Stderr   string
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("external command %q exited with code %d", strings.Join(e.Command, " "), e.ExitCode)
}
