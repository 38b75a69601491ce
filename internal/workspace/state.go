package workspace

import (
	"errors"
	"fmt"
)

// State is a step of the measurement lifecycle.
type State int

const (
	StateIdle State = iota
	StateCloned
	StateBuilt
	StateServerRunning
	StateBenchmarkComplete
	StateServerStopped
	StateCleanedUp
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateCloned:            "cloned",
	StateBuilt:             "built",
	StateServerRunning:     "server_running",
	StateBenchmarkComplete: "benchmark_complete",
	StateServerStopped:     "server_stopped",
	StateCleanedUp:         "cleaned_up",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrOutOfOrder is returned when an operation is invoked in the wrong state.
var ErrOutOfOrder = errors.New("operation out of order")

func (o *Orchestrator) expect(op string, want State) error {
	if o.state != want {
		return fmt.Errorf("%s: %w: in state %s, want %s", op, ErrOutOfOrder, o.state, want)
	}
	return nil
}
