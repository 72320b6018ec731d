// Package workflow holds the re-entry guard shared by every workflow: a
// workflow instance runs at most one request at a time, and a second
// submission while the first is in flight is refused without side effects.
package workflow

import (
	"errors"
	"sync/atomic"
)

// ErrInProgress is returned for a submission made while the same workflow
// instance is still running. Callers treat it as a no-op.
var ErrInProgress = errors.New("already in progress")

// Guard is an in-flight flag. The zero value is ready to use.
type Guard struct {
	busy atomic.Bool
}

// Enter marks the workflow busy, or returns ErrInProgress if it already is.
func (g *Guard) Enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	return nil
}

// Leave clears the flag.
func (g *Guard) Leave() {
	g.busy.Store(false)
}

// Busy reports whether a request is in flight.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
