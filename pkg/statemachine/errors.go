package statemachine

import (
	"errors"
	"fmt"
)

// TransitionError indicates no transition is registered for a state/event
// combination.
type TransitionError struct {
	From  string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from state %q for event %q", e.From, e.Event)
}

// IsTransitionError reports whether err is a *TransitionError.
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}
