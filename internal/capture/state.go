package capture

// State is the lifecycle state of a stream controller.
type State int

const (
	Idle State = iota
	Connecting
	Active
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Active, Error, Idle},
	Active:     {Error, Idle},
	Error:      {Idle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
