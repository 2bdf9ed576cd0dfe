package core

import (
	"errors"
	"fmt"
)

var (
	// ErrFatal marks device or program failures the pipeline cannot recover from.
	ErrFatal = errors.New("fatal")

	// ErrReentrantStep is returned when Step is called while a step is in progress.
	ErrReentrantStep = errors.New("stepper: step already in progress")
)

// Fatal wraps err so that errors.Is(err, ErrFatal) holds.
func Fatal(err error) error {
	if err == nil || errors.Is(err, ErrFatal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsFatal reports whether err must end the run.
func IsFatal(err error) bool { return errors.Is(err, ErrFatal) }
