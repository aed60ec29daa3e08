package integrity

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a file an operation needs is missing or
// is not a regular file.
type NotFoundError struct {
	Kind string // "file", "input", "proof"
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
