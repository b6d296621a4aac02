package session

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrExamNotFound covers unknown ids, malformed records and provider
	// failures alike: a session never starts from a partial load.
	ErrExamNotFound = errors.New("exam not found")

	// ErrPrecondition marks an operation invoked in a state where it is not
	// valid. It indicates a caller bug, never a user-recoverable condition.
	ErrPrecondition = errors.New("session precondition violated")

	ErrUnknownQuestion = fmt.Errorf("%w: question does not belong to exam", ErrPrecondition)
	ErrUnknownOption   = fmt.Errorf("%w: option does not belong to question", ErrPrecondition)
	ErrAtLastQuestion  = fmt.Errorf("%w: already at last question", ErrPrecondition)

	// ErrAtFirstQuestion is the leave-the-exam signal returned by GoPrevious
	// on the first question.
	ErrAtFirstQuestion = errors.New("already at first question")

	// ErrSessionClosed is returned once a session was abandoned or failed to load.
	ErrSessionClosed = errors.New("session closed")
)

func phaseError(op string, phase string) error {
	return fmt.Errorf("%w: %s while %s", ErrPrecondition, op, phase)
}
