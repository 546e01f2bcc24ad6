package webrtc

// ICEGathererState represents the current state of an ICE gatherer.
type ICEGathererState int

const (
	// ICEGathererStateNew indicates object has been created but gathering
	// is not in progress.
	ICEGathererStateNew ICEGathererState = iota + 1

	// ICEGathererStateGathering indicates the gathering process is in
	// progress.
	ICEGathererStateGathering

	// ICEGathererStateComplete indicates the gathering process is complete.
	ICEGathererStateComplete

	// ICEGathererStateClosed indicates the closed state can only be
	// entered when the parent PeerConnection is closed.
	ICEGathererStateClosed
)

func (s ICEGathererState) String() string {
	switch s {
	case ICEGathererStateNew:
		return "new"
	case ICEGathererStateGathering:
		return "gathering"
	case ICEGathererStateComplete:
		return "complete"
	case ICEGathererStateClosed:
		return "closed"
	default:
		return unknownStr
	}
}

// ICEGatheringState describes the aggregate ICE gathering state exposed
// on the PeerConnection, derived per spec.md §4.5 from the set of child
// ICEGathererStates.
type ICEGatheringState int

const (
	// ICEGatheringStateNew indicates that any of the ICETransports are
	// in the "new" gathering state and none of the transports are in the
	// "gathering" state.
	ICEGatheringStateNew ICEGatheringState = iota + 1

	// ICEGatheringStateGathering indicates that any of the ICETransports
	// are in the "gathering" state.
	ICEGatheringStateGathering

	// ICEGatheringStateComplete indicates that at least one ICETransport
	// exists, and all ICETransports are in the "completed" gathering
	// state.
	ICEGatheringStateComplete
)

func (s ICEGatheringState) String() string {
	switch s {
	case ICEGatheringStateNew:
		return "new"
	case ICEGatheringStateGathering:
		return "gathering"
	case ICEGatheringStateComplete:
		return "complete"
	default:
		return unknownStr
	}
}
