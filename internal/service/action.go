package service

import (
	"context"
	"errors"
	"sync"
)

// ErrActionPending is returned when an action is started again before the
// previous run has settled.
var ErrActionPending = errors.New("action already in progress")

type ActionState int

const (
	ActionIdle ActionState = iota
	ActionPending
	ActionSettled
)

func (s ActionState) String() string {
	switch s {
	case ActionPending:
		return "pending"
	case ActionSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Action tracks one user-triggered request site: idle, pending, or settled
// with the outcome of the last run. The zero value is ready to use.
type Action struct {
	mu    sync.Mutex
	state ActionState
	err   error
}

// Run executes fn unless a previous run is still pending.
func (a *Action) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	if a.state == ActionPending {
		a.mu.Unlock()
		return ErrActionPending
	}
	a.state = ActionPending
	a.err = nil
	a.mu.Unlock()

	err := fn(ctx)

	a.mu.Lock()
	a.state = ActionSettled
	a.err = err
	a.mu.Unlock()
	return err
}

func (a *Action) State() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err is the outcome of the last settled run.
func (a *Action) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Action) Pending() bool {
	return a.State() == ActionPending
}

// Reset returns a settled action to idle. A pending action is left alone.
func (a *Action) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == ActionSettled {
		a.state = ActionIdle
		a.err = nil
	}
}
