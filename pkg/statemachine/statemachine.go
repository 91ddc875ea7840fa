package statemachine

import "sync"

// Machine is a thread-safe finite state machine over string-like state and
// event types. Transitions are registered up front; firing an event either
// moves the machine to the registered target state or fails with a
// *TransitionError, which makes unhandled state/event combinations explicit
// instead of silent fallthroughs.
type Machine[S ~string, E ~string] struct {
	mu          sync.Mutex
	initial     S
	current     S
	transitions map[S]map[E]S
}

// New creates a machine starting in the initial state.
func New[S ~string, E ~string](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E]S),
	}
}

// Add registers a transition. Registering the same (from, event) pair twice
// overwrites the previous target.
func (m *Machine[S, E]) Add(from S, event E, to S) *Machine[S, E] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E]S)
	}
	m.transitions[from][event] = to
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire applies the event and returns the resulting state. If no transition
// is registered for the current state and event, the state is unchanged and
// a *TransitionError is returned.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := m.transitions[m.current][event]
	if !ok {
		return m.current, &TransitionError{From: string(m.current), Event: string(event)}
	}
	m.current = to
	return to, nil
}

// Can reports whether the event has a registered transition from the current
// state.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.transitions[m.current][event]
	return ok
}

// Set forces the machine into the given state, bypassing transitions. Meant
// for restoring persisted state on boot.
func (m *Machine[S, E]) Set(state S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = state
}

// Reset returns the machine to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
