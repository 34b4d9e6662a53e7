package generator

// State is a step of the generation state machine:
//
//	placing -> validating -> done
//	                      -> retry -> placing
//	                      -> failed
type State int

const (
	StatePlacing State = iota
	StateValidating
	StateRetry
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlacing:
		return "placing"
	case StateValidating:
		return "validating"
	case StateRetry:
		return "retry"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the machine stops in this state
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
