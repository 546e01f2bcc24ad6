package webrtc

// DTLSParameters carries the role and certificate fingerprints exchanged
// during DTLS negotiation (spec.md §3.3, §6.1/§6.2).
type DTLSParameters struct {
	Role         DTLSRole
	Fingerprints []DTLSFingerprint
}
