package timesheet

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidState         = errors.New("entry state does not permit this transition")
	ErrNotOwner             = errors.New("entry belongs to another employee")
	ErrRecallWindowExpired  = errors.New("recall window has expired")
	ErrUnauthorizedReviewer = errors.New("reviewer is not authorized for this entry")
	ErrNotFound             = errors.New("time entry not found")
)
