package webrtc

const unknownStr = "unknown"

const (
	// discardHost and discardPort are the placeholder endpoint written into
	// a media section before any ICE candidate has been gathered.
	discardHost = "0.0.0.0"
	discardPort = 9

	sctpMaxInboundStreams = 65535

	mediaKindApplication = "application"

	profileLegacySCTP = "DTLS/SCTP"
	profileModernSCTP = "UDP/DTLS/SCTP"

	fmtModernSCTP = "webrtc-datachannel"

	bundleGroupType = "BUNDLE"

	randomIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)
