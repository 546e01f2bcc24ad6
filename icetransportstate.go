package webrtc

// ICETransportState represents the current state of an ICE transport.
type ICETransportState int

const (
	// ICETransportStateNew indicates gathering/checks have not started.
	ICETransportStateNew ICETransportState = iota + 1

	// ICETransportStateChecking indicates the transport is checking
	// candidate pairs but has not yet found a connection.
	ICETransportStateChecking

	// ICETransportStateConnected indicates a usable candidate pair has
	// been found but checks are continuing.
	ICETransportStateConnected

	// ICETransportStateCompleted indicates checks have completed and a
	// final candidate pair has been selected.
	ICETransportStateCompleted

	// ICETransportStateFailed indicates the transport has failed to
	// establish any connection.
	ICETransportStateFailed

	// ICETransportStateDisconnected indicates the transport lost a
	// previously working connection.
	ICETransportStateDisconnected

	// ICETransportStateClosed indicates the transport has shut down and is
	// no longer responding to STUN requests.
	ICETransportStateClosed
)

func (s ICETransportState) String() string {
	switch s {
	case ICETransportStateNew:
		return "new"
	case ICETransportStateChecking:
		return "checking"
	case ICETransportStateConnected:
		return "connected"
	case ICETransportStateCompleted:
		return "completed"
	case ICETransportStateFailed:
		return "failed"
	case ICETransportStateDisconnected:
		return "disconnected"
	case ICETransportStateClosed:
		return "closed"
	default:
		return unknownStr
	}
}
