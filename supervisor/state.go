package supervisor

// State represents where the bootstrap sequence currently is.
type State int

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota
	// StateProbingExisting means the supervisor is checking for a
	// server that is already listening on the fixed port.
	StateProbingExisting
	// StateLaunching means the launch strategy chain is running.
	StateLaunching
	// StatePolling means a process was spawned and the supervisor is
	// waiting for it to accept connections.
	StatePolling
	// StateReady means the server is reachable and the UI has been
	// signalled. Terminal for the bootstrap sequence.
	StateReady
	// StateFailed means every launch strategy failed or the polling
	// budget ran out. Terminal for the bootstrap sequence.
	StateFailed
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProbingExisting:
		return "ProbingExisting"
	case StateLaunching:
		return "Launching"
	case StatePolling:
		return "Polling"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return "InvalidState"
	}
}
