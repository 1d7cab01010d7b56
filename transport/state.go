package transport

import "fmt"

// State is the lifecycle state of a request session.
type State uint32

const (
	StateConnecting State = iota
	StateAwaitingFrames
	StateStreaming
	StateBuffering
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	"connecting",
	"awaiting_frames",
	"streaming",
	"buffering",
	"completed",
	"failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// validTransitions lists the successors allowed from each state.
var validTransitions = map[State][]State{
	StateConnecting:     {StateAwaitingFrames, StateFailed},
	StateAwaitingFrames: {StateStreaming, StateBuffering, StateFailed},
	StateStreaming:      {StateCompleted, StateFailed},
	StateBuffering:      {StateCompleted, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
