package webrtc

// Configuration defines how peer-to-peer communication via PeerConnection
// is established or re-established, per spec.md §6.3. Only the fields an
// orchestrator limited to data channels needs are exposed.
type Configuration struct {
	// ICEServers defines a slice of ICEServer objects used to establish an
	// ICETransport's connectivity checks and TURN relays.
	ICEServers []ICEServer

	// ICETransportPolicy indicates which candidates the ICEAgent is
	// allowed to use.
	ICETransportPolicy ICETransportPolicy

	// BundlePolicy affects which media tracks are negotiated if the
	// remote endpoint is not bundle-aware. Accepted for API compatibility
	// and stored on the connection; see BundlePolicy's doc comment for
	// the scope of enforcement in this core.
	BundlePolicy BundlePolicy

	// ICECandidatePoolSize determines the size of the prefetched ICE pool.
	ICECandidatePoolSize uint8

	// SCTPLegacySDP selects the legacy `DTLS/SCTP` + `a=sctpmap` media
	// profile instead of the modern `UDP/DTLS/SCTP` + `a=sctp-port`
	// profile when this connection emits an offer. See spec.md §6.1 and
	// SPEC_FULL.md's "Supplemented from original_source" section.
	SCTPLegacySDP bool
}

func (c *Configuration) getICEServers() []ICEServer { return c.ICEServers }

// validate checks every ICEServer URL so a malformed configuration fails
// at construction rather than deep inside gathering.
func (c *Configuration) validate() error {
	for _, server := range c.ICEServers {
		if err := server.validate(); err != nil {
			return err
		}
	}
	return nil
}
