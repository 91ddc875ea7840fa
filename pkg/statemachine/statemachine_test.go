package statemachine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/statemachine"
)

type state string

type event string

const (
	idle    state = "idle"
	running state = "running"
	done    state = "done"

	start  event = "start"
	finish event = "finish"
)

func newMachine() *statemachine.Machine[state, event] {
	return statemachine.New[state, event](idle).
		Add(idle, start, running).
		Add(running, finish, done)
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	sm := newMachine()
	assert.Equal(t, idle, sm.Current())

	next, err := sm.Fire(start)
	require.NoError(t, err)
	assert.Equal(t, running, next)
	assert.Equal(t, running, sm.Current())

	next, err = sm.Fire(finish)
	require.NoError(t, err)
	assert.Equal(t, done, next)
}

func TestMachine_FireUnregistered(t *testing.T) {
	t.Parallel()

	sm := newMachine()

	next, err := sm.Fire(finish)
	require.Error(t, err)
	assert.True(t, statemachine.IsTransitionError(err))
	assert.Equal(t, idle, next, "state must not change on rejected event")
}

func TestMachine_Can(t *testing.T) {
	t.Parallel()

	sm := newMachine()
	assert.True(t, sm.Can(start))
	assert.False(t, sm.Can(finish))
}

func TestMachine_SetAndReset(t *testing.T) {
	t.Parallel()

	sm := newMachine()
	sm.Set(done)
	assert.Equal(t, done, sm.Current())

	sm.Reset()
	assert.Equal(t, idle, sm.Current())
}

func TestMachine_ConcurrentFire(t *testing.T) {
	t.Parallel()

	sm := statemachine.New[state, event](idle).
		Add(idle, start, running).
		Add(running, start, running)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sm.Fire(start)
		}()
	}
	wg.Wait()

	assert.Equal(t, running, sm.Current())
}
