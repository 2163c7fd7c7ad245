package lifecycle

// State is where a background loop is in its life.
type State int

const (
	// StateStopped means no loop runs. Launch may be called.
	StateStopped State = iota

	// StateRunning means the loop accepts work.
	StateRunning

	// StateDraining means the loop's input is closed and it is flushing
	// what it still holds.
	StateDraining

	// StateCrashed means the last run ended with an error. Launch may be
	// called again.
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateRunning:  "Running",
	StateDraining: "Draining",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// transitions lists where each state may go.
var transitions = map[State][]State{
	StateStopped:  {StateRunning},
	StateCrashed:  {StateRunning},
	StateRunning:  {StateDraining, StateStopped, StateCrashed},
	StateDraining: {StateStopped, StateCrashed},
}

func canMove(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Listener is told about every state change, after it happened.
type Listener interface {
	OnStateChange(previous, current State, reason string)
}
