package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/migadu/abook2procmail/consts"
)

// PathError records a failed operation on a file together with the
// taxonomy kind from consts and the underlying cause.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewPathError(op, path string, kind, err error) *PathError {
	return &PathError{
		Op:   op,
		Path: path,
		Kind: kind,
		Err:  err,
	}
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, consts.ErrConfigNotFound), stderrors.Is(err, consts.ErrConfigInvalid):
		return 2
	default:
		return 1
	}
}
