package supervisor

import "sync"

// readiness tracks the bootstrap state and the write-once ready flag
// behind one mutex. The flag is shared between the bootstrap goroutine
// and UI-facing queries; once true it never reverts within a process
// lifetime.
type readiness struct {
	mu    sync.Mutex
	st    State
	ready bool
}

func (r *readiness) get() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *readiness) state() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st
}

func (r *readiness) set(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st = s
}

// transition moves from one state to another only if the current state
// matches, and reports whether it did.
func (r *readiness) transition(from, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.st != from {
		return false
	}
	r.st = to
	return true
}

// mark flips the ready flag exactly once. It reports false on every
// call after the first.
func (r *readiness) mark() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return false
	}
	r.ready = true
	r.st = StateReady
	return true
}
