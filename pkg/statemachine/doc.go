// Package statemachine implements a minimal typed finite state machine.
//
// It exists so components with a small number of well-defined lifecycle
// states (notably the client session controller with its Unauthenticated /
// Authenticated / EmailVerificationRequired states) declare their state
// table in one place and get an error, not a silent no-op, when an event
// arrives in a state that does not expect it.
//
//	sm := statemachine.New[State, Event](StateIdle).
//		Add(StateIdle, EventStart, StateRunning).
//		Add(StateRunning, EventStop, StateIdle)
//
//	next, err := sm.Fire(EventStart)
package statemachine
