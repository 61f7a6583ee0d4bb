package main

import (
	stderrors "errors"
	"fmt"

	"github.com/migadu/abook2procmail/consts"
	"github.com/migadu/abook2procmail/pkg/errors"
)

// describe turns a command error into the single line shown to the user.
func describe(err error) string {
	var pe *errors.PathError
	if !stderrors.As(err, &pe) {
		return err.Error()
	}

	switch pe.Kind {
	case consts.ErrInputNotFound:
		return fmt.Sprintf("%s does not exist or not a file!", pe.Path)
	case consts.ErrInputPermissionDenied:
		return fmt.Sprintf("Not enough permissions: %s is not readable.", pe.Path)
	case consts.ErrOutputPermissionDenied:
		return fmt.Sprintf("Not enough permissions: %s is not writeable.", pe.Path)
	case consts.ErrOutputWriteFailure:
		return fmt.Sprintf("Writing rule file failed with error: %v", pe.Err)
	case consts.ErrAddressBookMalformed:
		return fmt.Sprintf("Cannot parse address book %s: %v", pe.Path, pe.Err)
	case consts.ErrConfigNotFound:
		return fmt.Sprintf("Configuration file %s not found: %v", pe.Path, pe.Err)
	case consts.ErrConfigInvalid:
		if pe.Op == "validate" {
			return fmt.Sprintf("Invalid configuration: %v", pe.Err)
		}
		return fmt.Sprintf("Invalid configuration in %s: %v", pe.Path, pe.Err)
	default:
		return pe.Error()
	}
}
