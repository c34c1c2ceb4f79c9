package pipeline

import (
	"errors"
	"fmt"
)

// Stage names used in StageError and log fields.
const (
	StageLoad           = "load"
	StageClean          = "clean"
	StageProfile        = "profile"
	StageStatistics     = "statistics"
	StageInsights       = "insights"
	StageVisualizations = "visualizations"
	StagePredictions    = "predictions"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrEmptyLoad is returned when a loader yields no dataset.
	ErrEmptyLoad = errors.New("file could not be loaded")
)

// StageError names the stage that failed. Its message is the underlying
// error's message so failure reports read the same whichever stage broke.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// recovered converts a panic value into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
