package websocket

// State is the lifecycle position of a real-time connection.
//
//	Authenticated -> Streaming -> Closed
//
// The token wait before it happens in the HTTP handshake, so a Client
// only exists once its token was accepted. A failed Start goes straight
// to Closed.
type State int32

const (
	StateAuthenticated State = iota + 1
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
