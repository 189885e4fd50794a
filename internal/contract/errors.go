package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/patrolq/schema"
)

// Pipeline failure kinds. Callers match them with errors.Is.
var (
	ErrSourceNotFound        = errors.New("input source not found")
	ErrDataExhausted         = errors.New("no rows left after cleaning")
	ErrInvalidComponentCount = errors.New("invalid principal component count")
	ErrMetricUncomputable    = errors.New("metric cannot be computed")
	ErrNoViableModel         = errors.New("no viable clustering model")
	ErrPersistenceFailure    = errors.New("failed to persist document")
	ErrResultsNotFound       = errors.New("pipeline has not produced results yet")
	ErrMalformedDocument     = errors.New("malformed result document")
)

// StageError names the pipeline stage a fatal error came from.
type StageError struct {
	Stage schema.Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage tags err with the stage it came from. A nil err stays nil.
func WrapStage(stage schema.Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
