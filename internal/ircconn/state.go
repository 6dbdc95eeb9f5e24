package ircconn

// State is the connection lifecycle position.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistered
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
