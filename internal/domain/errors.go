package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Wrap them with fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	ErrValidation                  = errors.New("validation error")
	ErrInvalidToneValue            = fmt.Errorf("invalid tone value: %w", ErrValidation)
	ErrUpstreamEmptyResponse       = errors.New("upstream returned an empty response")
	ErrUpstreamMalformed           = errors.New("upstream returned a malformed response")
	ErrUpstreamUnavailable         = errors.New("upstream unavailable")
	ErrInvalidModelResponse        = errors.New("invalid model response")
	ErrReferenceConflictUnresolved = errors.New("reference conflict unresolved")
	ErrPersistenceFailure          = errors.New("persistence failure")
	ErrUnauthorized                = errors.New("missing verification key")
	ErrForbidden                   = errors.New("invalid verification key")
	ErrAuthMisconfigured           = errors.New("verification key not configured")
	ErrNotFound                    = errors.New("not found")
)

// PipelineError is the terminal Failed(reason) outcome of a pipeline run.
type PipelineError struct {
	State PipelineState
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed in %s: %v", e.State, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
