package webrtc

// BundlePolicy affects which media tracks are negotiated if the remote
// endpoint is not bundle-aware. This core stores the configured value,
// but no policy changes its behaviour: the data-channel-only orchestrator
// always emits a single BUNDLE group over one transport.
type BundlePolicy int

const (
	// BundlePolicyBalanced indicates to gather ICE candidates for each
	// media type in use (audio, video, and data).
	BundlePolicyBalanced BundlePolicy = iota + 1

	// BundlePolicyMaxCompat indicates to gather ICE candidates for each
	// track.
	BundlePolicyMaxCompat

	// BundlePolicyMaxBundle indicates to gather ICE candidates for only
	// one track and bundle the rest onto that one transport.
	BundlePolicyMaxBundle
)

func (p BundlePolicy) String() string {
	switch p {
	case BundlePolicyBalanced:
		return "balanced"
	case BundlePolicyMaxCompat:
		return "max-compat"
	case BundlePolicyMaxBundle:
		return "max-bundle"
	default:
		return unknownStr
	}
}
