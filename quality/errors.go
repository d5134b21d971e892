package quality

import (
	"errors"
	"fmt"
)

var (
	ErrImageDecode    = errors.New("failed to decode image")
	ErrNoMatch        = errors.New("no detection matches the face box")
	ErrAlignment      = errors.New("face alignment failed")
	ErrNoDetection    = errors.New("no face detected in crop")
	ErrMalformedInput = errors.New("malformed face input")
)

// ProcessingError records the pipeline stage an error came from.
type ProcessingError struct {
	Stage string
	Cause error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
	}
	return e.Stage
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

func stageError(stage string, cause error) error {
	return &ProcessingError{Stage: stage, Cause: cause}
}
