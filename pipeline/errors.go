package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline stages named in StageError.
const (
	StageValidate = "validate"
	StageLink     = "link"
	StageExtract  = "extract"
	StagePackage  = "package"
	StageOutput   = "output"
)

// ErrNoLinker is returned when linking is requested without a Linker.
var ErrNoLinker = errors.New("no linker configured")

// StageError reports which stage of the pipeline failed.
type StageError struct {
	// Stage is one of the Stage constants
	Stage string

	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// IsStageError returns true if the error is a StageError.
func IsStageError(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}
