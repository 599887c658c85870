// Package workflow holds the lifecycle state machines for papers and
// submissions. Transitions never skip states and are never silently coerced:
// an attempt that violates the table fails with IllegalTransitionError.
package workflow

import (
	"errors"
	"fmt"
)

// Actor is the already-authenticated identity requesting a transition. Who
// authenticated it is the auth layer's business, not ours.
type Actor struct {
	ID   string
	Role string
}

type IllegalTransitionError struct {
	Entity string // "paper" or "submission"
	From   string
	Action string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s from %s", e.Entity, e.Action, e.From)
}

// ForbiddenError reports an actor whose role may not perform the action.
type ForbiddenError struct {
	Role   string
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %q may not perform %s", e.Role, e.Action)
}

// ErrPendingManual blocks a submission from reaching GRADED while manual
// items are outstanding. Informational, not fatal: the caller triggers the
// human grading workflow and retries.
var ErrPendingManual = errors.New("manual grades outstanding")

// ErrFeedbackRequired guards transitions that must carry a note (review
// rejection, returning a submission).
var ErrFeedbackRequired = errors.New("feedback is required")
