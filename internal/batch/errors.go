package batch

import "errors"

// Configuration errors. All of these are fatal and abort the batch
// before the run loop starts.
var (
	// ErrNoModels is returned when discovery finds no model files.
	ErrNoModels = errors.New("no model file found")

	// ErrInvalidStartIndex is returned when the requested start index
	// is higher than the number of discovered models.
	ErrInvalidStartIndex = errors.New("start index exceeds number of models")

	// ErrUnknownAnalysis is returned for an unsupported analysis type.
	ErrUnknownAnalysis = errors.New("unsupported analysis type")

	// ErrInvalidWatchFiles is returned when a custom watch-file list
	// is missing the files the log-scanning watcher depends on.
	ErrInvalidWatchFiles = errors.New("requested watch files not applicable for analysis")
)
