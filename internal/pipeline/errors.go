package pipeline

import "errors"

var (
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	ErrRunNotFound   = errors.New("pipeline run not found")
)
