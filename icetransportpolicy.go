package webrtc

// ICETransportPolicy defines the ICE candidate policy surface the
// candidate type of a PeerConnection is restricted to.
type ICETransportPolicy int

const (
	// ICETransportPolicyAll indicates any type of candidate is used.
	ICETransportPolicyAll ICETransportPolicy = iota + 1

	// ICETransportPolicyRelay indicates only media relay candidates such
	// as candidates passing through a TURN server are used.
	ICETransportPolicyRelay
)

func (p ICETransportPolicy) String() string {
	switch p {
	case ICETransportPolicyAll:
		return "all"
	case ICETransportPolicyRelay:
		return "relay"
	default:
		return unknownStr
	}
}
