package records

import "errors"

// Domain errors for record operations.
var (
	ErrDuplicate = errors.New("record already exists")
	ErrNotFound  = errors.New("record not found")
	ErrInvalid   = errors.New("record is missing required fields")
)
