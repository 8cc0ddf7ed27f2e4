package storage

import "errors"

var (
	// ErrUnknownBackend indicates an unrecognized backend selector.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrUnavailable indicates the backend could not be reached.
	// A pipeline run aborts when it observes this condition.
	ErrUnavailable = errors.New("storage unavailable")
)
