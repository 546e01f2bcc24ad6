package webrtc

// SignalingState indicates the signaling state of the offer/answer
// process, per spec.md §4.1.
type SignalingState int

const (
	// SignalingStateStable indicates there is no offer/answer exchange in
	// progress. This is also the initial state.
	SignalingStateStable SignalingState = iota + 1

	// SignalingStateHaveLocalOffer indicates that a local description of
	// type "offer" has been successfully applied.
	SignalingStateHaveLocalOffer

	// SignalingStateHaveRemoteOffer indicates that a remote description of
	// type "offer" has been successfully applied.
	SignalingStateHaveRemoteOffer

	// SignalingStateHaveLocalPranswer indicates a remote offer has been
	// applied and a local description of type "pranswer" has followed it.
	SignalingStateHaveLocalPranswer

	// SignalingStateHaveRemotePranswer indicates a local offer has been
	// applied and a remote description of type "pranswer" has followed it.
	SignalingStateHaveRemotePranswer

	// SignalingStateClosed is terminal: the PeerConnection has been closed.
	SignalingStateClosed
)

const (
	signalingStateStableStr             = "stable"
	signalingStateHaveLocalOfferStr     = "have-local-offer"
	signalingStateHaveRemoteOfferStr    = "have-remote-offer"
	signalingStateHaveLocalPranswerStr  = "have-local-pranswer"
	signalingStateHaveRemotePranswerStr = "have-remote-pranswer"
	signalingStateClosedStr             = "closed"
)

func (s SignalingState) String() string {
	switch s {
	case SignalingStateStable:
		return signalingStateStableStr
	case SignalingStateHaveLocalOffer:
		return signalingStateHaveLocalOfferStr
	case SignalingStateHaveRemoteOffer:
		return signalingStateHaveRemoteOfferStr
	case SignalingStateHaveLocalPranswer:
		return signalingStateHaveLocalPranswerStr
	case SignalingStateHaveRemotePranswer:
		return signalingStateHaveRemotePranswerStr
	case SignalingStateClosed:
		return signalingStateClosedStr
	default:
		return unknownStr
	}
}

// signalingOp identifies which public entry point is driving a
// transition, since the legal next states differ for setLocalDescription
// vs. setRemoteDescription even from the same current state.
type signalingOp int

const (
	signalingOpSetLocal signalingOp = iota + 1
	signalingOpSetRemote
)

func (op signalingOp) String() string {
	if op == signalingOpSetLocal {
		return "setLocalDescription"
	}
	return "setRemoteDescription"
}

// nextSignalingState is a pure function of (current state, operation, SDP
// type) implementing the transition table in spec.md §4.1. It never
// mutates anything; callers apply the result only after the rest of
// validation succeeds.
func nextSignalingState(cur SignalingState, op signalingOp, sdpType SDPType) (SignalingState, error) {
	if cur == SignalingStateClosed {
		return cur, newInvalidStateErrorf("%w", ErrSignalingStateClosed)
	}

	switch cur {
	case SignalingStateStable:
		if sdpType == SDPTypeOffer {
			if op == signalingOpSetLocal {
				return SignalingStateHaveLocalOffer, nil
			}
			return SignalingStateHaveRemoteOffer, nil
		}
	case SignalingStateHaveLocalOffer:
		if op == signalingOpSetLocal && sdpType == SDPTypeOffer {
			return SignalingStateHaveLocalOffer, nil
		}
		if op == signalingOpSetRemote {
			switch sdpType {
			case SDPTypeAnswer:
				return SignalingStateStable, nil
			case SDPTypePranswer:
				return SignalingStateHaveRemotePranswer, nil
			}
		}
	case SignalingStateHaveRemoteOffer:
		if op == signalingOpSetLocal {
			switch sdpType {
			case SDPTypeAnswer:
				return SignalingStateStable, nil
			case SDPTypePranswer:
				return SignalingStateHaveLocalPranswer, nil
			}
		}
	case SignalingStateHaveLocalPranswer:
		if op == signalingOpSetLocal && sdpType == SDPTypeAnswer {
			return SignalingStateStable, nil
		}
	case SignalingStateHaveRemotePranswer:
		if op == signalingOpSetRemote && sdpType == SDPTypeAnswer {
			return SignalingStateStable, nil
		}
	}

	return cur, newInvalidStateErrorf(
		"cannot handle %s of type %q in signaling state %q", op, sdpType, cur,
	)
}

// defaultImplicitSDPType resolves the SDP type to use for
// setLocalDescription(nil), which creates the implicit offer or answer
// based on the current signaling state (spec.md §4.2).
func defaultImplicitSDPType(cur SignalingState) (SDPType, error) {
	switch cur {
	case SignalingStateStable, SignalingStateHaveLocalOffer:
		return SDPTypeOffer, nil
	case SignalingStateHaveRemoteOffer, SignalingStateHaveLocalPranswer:
		return SDPTypeAnswer, nil
	default:
		return 0, newInvalidStateErrorf(
			"cannot infer an implicit local description in signaling state %q", cur,
		)
	}
}
