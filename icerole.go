package webrtc

// ICERole describes the role the ICE agent plays in selecting the
// preferred candidate pair (spec.md §4.2's "ICE: on the local offer, the
// local ICE transport becomes controlling...").
type ICERole int

const (
	// ICERoleControlling indicates the agent is responsible for selecting
	// the final choice of candidate pair.
	ICERoleControlling ICERole = iota + 1

	// ICERoleControlled indicates the agent waits for the controlling
	// agent to select the final choice of candidate pair.
	ICERoleControlled
)

func (r ICERole) String() string {
	switch r {
	case ICERoleControlling:
		return "controlling"
	case ICERoleControlled:
		return "controlled"
	default:
		return unknownStr
	}
}
