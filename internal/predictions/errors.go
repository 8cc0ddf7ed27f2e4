package predictions

import "errors"

var (
	ErrModelNotTrained   = errors.New("no trained model available")
	ErrInsufficientData  = errors.New("insufficient training data")
	ErrArtifactNotFound  = errors.New("model artifact not found")
	ErrDuplicateArtifact = errors.New("model artifact already exists")
	ErrDuplicate         = errors.New("prediction already exists")
	ErrInvalid           = errors.New("invalid prediction input")
)
