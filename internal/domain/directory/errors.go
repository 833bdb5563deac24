package directory

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("record already exists")
	ErrLastAdmin      = errors.New("cannot remove the last active admin")
	ErrInternalClient = errors.New("operation not allowed on the internal client")
)
