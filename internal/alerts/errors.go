package alerts

import "errors"

var (
	ErrDuplicate      = errors.New("alert already recorded")
	ErrUnknownChannel = errors.New("unknown alert channel")
	ErrInvalid        = errors.New("invalid alert configuration")
)
