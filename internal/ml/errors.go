package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable means no trained model is in memory and none could be loaded.
	ErrModelUnavailable = errors.New("model not available: train the model first")
	// ErrModelFormat means a persisted model could not be understood.
	ErrModelFormat = errors.New("unsupported model format")
)

// TrainingError wraps a failure in one stage of Train.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed during %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}
