package projector

import "sync/atomic"

// ConnState is the session state of a Projector's connection.
type ConnState uint32

const (
	// NotConnectedState: no transport. Commands will dial and negotiate first.
	NotConnectedState ConnState = iota
	// ConnectedState: TCP is open, nothing has been sent yet.
	ConnectedState
	// GreetingSentState: the greeting arrived and the session request was sent.
	GreetingSentState
	// NegotiatedState: the projector acknowledged the session request and
	// accepts commands.
	NegotiatedState
)

func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case ConnectedState:
		return "connected"
	case GreetingSentState:
		return "greeting-sent"
	case NegotiatedState:
		return "negotiated"
	default:
		return "unknown"
	}
}

// IsNegotiated reports whether commands may be sent.
func (cs ConnState) IsNegotiated() bool { return cs == NegotiatedState }

// atomicConnState enforces the strictly sequential handshake transitions.
type atomicConnState struct {
	state atomic.Uint32
}

func (st *atomicConnState) Get() ConnState {
	return ConnState(st.state.Load())
}

func (st *atomicConnState) String() string {
	return st.Get().String()
}

func (st *atomicConnState) ToConnected() bool {
	return st.state.CompareAndSwap(uint32(NotConnectedState), uint32(ConnectedState))
}

func (st *atomicConnState) ToGreetingSent() bool {
	return st.state.CompareAndSwap(uint32(ConnectedState), uint32(GreetingSentState))
}

func (st *atomicConnState) ToNegotiated() bool {
	return st.state.CompareAndSwap(uint32(GreetingSentState), uint32(NegotiatedState))
}

// ToNotConnected is allowed from any state.
func (st *atomicConnState) ToNotConnected() {
	st.state.Store(uint32(NotConnectedState))
}
