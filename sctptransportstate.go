package webrtc

// SCTPTransportState indicates the state of an SCTP transport.
type SCTPTransportState int

const (
	// SCTPTransportStateConnecting indicates the SCTPTransport is in the
	// process of negotiating an association.
	SCTPTransportStateConnecting SCTPTransportState = iota + 1

	// SCTPTransportStateConnected indicates the negotiation of an
	// association is complete.
	SCTPTransportStateConnected

	// SCTPTransportStateClosed indicates a shutdown has been initiated.
	SCTPTransportStateClosed
)

func (s SCTPTransportState) String() string {
	switch s {
	case SCTPTransportStateConnecting:
		return "connecting"
	case SCTPTransportStateConnected:
		return "connected"
	case SCTPTransportStateClosed:
		return "closed"
	default:
		return unknownStr
	}
}
