package generation

import (
	"strings"
	"sync"
)

// State is the lifecycle state of the session's generation job.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateObserving  State = "observing"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// IsActive reports whether a job is in flight.
func (s State) IsActive() bool {
	return s == StateRequesting || s == StateObserving
}

func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StateIdle:       {StateRequesting},
	StateComplete:   {StateRequesting},
	StateFailed:     {StateRequesting},
	StateRequesting: {StateObserving, StateIdle},
	StateObserving:  {StateComplete, StateFailed},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine owns the single session state. Every start bumps seq so that
// work belonging to an older job cannot move the state.
type machine struct {
	mu    sync.Mutex
	state State
	seq   uint64
}

func newMachine() *machine {
	return &machine{state: StateIdle}
}

// begin moves to requesting and returns the new job sequence number.
// It fails while a job is active.
func (m *machine) begin() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !allowed(m.state, StateRequesting) {
		return 0, false
	}
	m.seq++
	m.state = StateRequesting
	return m.seq, true
}

// advance moves from -> to for job seq. It is a no-op returning false when
// seq is stale, the state is not from, or the transition is not allowed.
func (m *machine) advance(seq uint64, from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.seq || m.state != from || !allowed(from, to) {
		return false
	}
	m.state = to
	return true
}

// is reports whether job seq is current and in state s.
func (m *machine) is(seq uint64, s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq == seq && m.state == s
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status text tokens.
const (
	statusComplete    = "Complete"
	statusErrorPrefix = "Error"
)

// IsComplete reports whether status signals success.
func IsComplete(status string) bool {
	return status == statusComplete
}

// IsFailure reports whether status signals a failed job.
func IsFailure(status string) bool {
	return strings.HasPrefix(status, statusErrorPrefix)
}

// IsTerminalStatus reports whether status ends observation.
func IsTerminalStatus(status string) bool {
	return IsComplete(status) || IsFailure(status)
}
