package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid activity id")
	ErrInvalidName       = errors.New("invalid project name")
	ErrInvalidEstimate   = errors.New("invalid estimate")
	ErrDuplicateActivity = errors.New("duplicate activity id")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCyclicDependency  = errors.New("cyclic dependency")
)
