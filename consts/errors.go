package consts

import "errors"

var (
	ErrInputNotFound         = errors.New("address book not found")
	ErrInputPermissionDenied = errors.New("address book not readable")
	ErrInputReadFailure      = errors.New("address book read failed")
	ErrAddressBookMalformed  = errors.New("malformed address book")

	ErrOutputPermissionDenied = errors.New("rule file not writeable")
	ErrOutputWriteFailure     = errors.New("writing rule file failed")

	ErrConfigNotFound = errors.New("configuration file not found")
	ErrConfigInvalid  = errors.New("invalid configuration")
)
