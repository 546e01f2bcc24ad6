package webrtc

// ICEConnectionState indicates the aggregate ICE connection state exposed
// on the PeerConnection, derived per spec.md §4.5 from the set of child
// ICETransportStates.
type ICEConnectionState int

const (
	// ICEConnectionStateNew indicates that none of the ICETransports are
	// in "checking" or "failed" and not all of them are "completed". The
	// aggregation reports transports that are "connected" or
	// "disconnected" as this state too; it never yields
	// ICEConnectionStateConnected or ICEConnectionStateDisconnected.
	ICEConnectionStateNew ICEConnectionState = iota + 1

	// ICEConnectionStateChecking indicates that any of the ICETransports
	// are in the "checking" state.
	ICEConnectionStateChecking

	// ICEConnectionStateConnected indicates all ICETransports are
	// "connected", "completed" or "closed" and at least one is
	// "connected".
	ICEConnectionStateConnected

	// ICEConnectionStateCompleted indicates all ICETransports are in the
	// "completed" or "closed" state and at least one is "completed".
	ICEConnectionStateCompleted

	// ICEConnectionStateDisconnected indicates that any of the
	// ICETransports are in the "disconnected" state and none are in
	// "failed" or "checking".
	ICEConnectionStateDisconnected

	// ICEConnectionStateFailed indicates that any of the ICETransports
	// are in a "failed" state.
	ICEConnectionStateFailed

	// ICEConnectionStateClosed indicates the PeerConnection's
	// ICETransports have been closed.
	ICEConnectionStateClosed
)

func (s ICEConnectionState) String() string {
	switch s {
	case ICEConnectionStateNew:
		return "new"
	case ICEConnectionStateChecking:
		return "checking"
	case ICEConnectionStateConnected:
		return "connected"
	case ICEConnectionStateCompleted:
		return "completed"
	case ICEConnectionStateDisconnected:
		return "disconnected"
	case ICEConnectionStateFailed:
		return "failed"
	case ICEConnectionStateClosed:
		return "closed"
	default:
		return unknownStr
	}
}

// PeerConnectionState indicates the aggregate connection state exposed on
// the PeerConnection, derived per spec.md §4.5 from the union of ICE and
// DTLS transport states.
type PeerConnectionState int

const (
	// PeerConnectionStateNew indicates every ICE and DTLS transport is in
	// the "new" or "closed" state. The aggregation never yields
	// PeerConnectionStateDisconnected.
	PeerConnectionStateNew PeerConnectionState = iota + 1

	// PeerConnectionStateConnecting indicates one or more of the
	// transports are currently in the process of establishing a
	// connection.
	PeerConnectionStateConnecting

	// PeerConnectionStateConnected indicates all transports have finished
	// negotiating a connection.
	PeerConnectionStateConnected

	// PeerConnectionStateDisconnected indicates one or more transports
	// have unexpectedly stopped responding.
	PeerConnectionStateDisconnected

	// PeerConnectionStateFailed indicates one or more transports have
	// terminated in an error.
	PeerConnectionStateFailed

	// PeerConnectionStateClosed indicates the PeerConnection has been
	// closed.
	PeerConnectionStateClosed
)

func (s PeerConnectionState) String() string {
	switch s {
	case PeerConnectionStateNew:
		return "new"
	case PeerConnectionStateConnecting:
		return "connecting"
	case PeerConnectionStateConnected:
		return "connected"
	case PeerConnectionStateDisconnected:
		return "disconnected"
	case PeerConnectionStateFailed:
		return "failed"
	case PeerConnectionStateClosed:
		return "closed"
	default:
		return unknownStr
	}
}
