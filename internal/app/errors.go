package app

import "errors"

// ErrProjectNotFound and related errors describe lookup and sequencing failures.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrActivityNotFound  = errors.New("activity not found")
	ErrAnalysisRequired  = errors.New("analysis required")
	ErrImportUnavailable = errors.New("file import is not available yet")
)
