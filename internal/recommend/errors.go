package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown user or movie.
	ErrNotFound = errors.New("recommend: not found")

	// ErrCollaboratorFailure reports that the store failed or timed out while
	// an operation was running. The operation returns no partial result.
	ErrCollaboratorFailure = errors.New("recommend: storage collaborator failed")
)

// CollaboratorError carries the store read that failed. It matches both
// ErrCollaboratorFailure and its cause with errors.Is.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("recommend: %s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorFailure
}

func collaboratorError(op string, err error) error {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}
