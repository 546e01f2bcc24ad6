// Package sdp models the subset of RFC 8866 session descriptions that a
// data-channel-only WebRTC peer connection needs, per spec.md §3.2-§3.4 and
// §6.1. It parses and serialises through github.com/pion/sdp/v3, the same
// substrate the teacher (pion/webrtc) builds its own SDP handling on, but
// exposes a structured model (ICE/DTLS/SCTP fields as first-class struct
// members) instead of a bag of raw attribute lines.
package sdp

// Fingerprint is a DTLS certificate fingerprint, RFC 8122.
type Fingerprint struct {
	Algorithm string
	Value     string
}

// ICEParameters carries the ICE credentials of a media section.
type ICEParameters struct {
	UsernameFragment string
	Password         string
	Lite             bool
}

// Candidate is a single ICE candidate line as it appears within a media
// section (spec.md §3.4). SDPMid/SDPMLineIndex are not part of the wire
// candidate attribute; they belong to the trickle-ICE envelope modelled by
// CandidateInit below.
type Candidate struct {
	Foundation     string
	Component      uint16
	Protocol       string
	Priority       uint32
	Address        string
	Port           uint16
	Typ            string
	RelatedAddress string
	RelatedPort    uint16
	TCPType        string
}

// CandidateInit is a trickled ICE candidate as delivered to addIceCandidate
// (spec.md §3.4, §4.3): at least one of SDPMid or SDPMLineIndex must be set
// on a non-nil candidate.
type CandidateInit struct {
	Candidate     string
	SDPMid        *string
	SDPMLineIndex *uint16
}

// DTLSParameters carries the DTLS role and fingerprints of a media section.
// Role is one of "auto", "client", "server" (spec.md §6.2), mapped to and
// from the SDP a=setup value ("actpass"/"active"/"passive") by Parse and
// Marshal.
type DTLSParameters struct {
	Role         string
	Fingerprints []Fingerprint
}

// MediaDescription models one m= section, restricted to the fields the
// orchestrator reads or writes (spec.md §3.3).
type MediaDescription struct {
	Kind                  string
	Port                  int
	Profile               string
	Fmt                   []string
	Host                  string
	MID                   string
	ICE                   ICEParameters
	ICECandidates         []Candidate
	ICECandidatesComplete bool
	DTLS                  DTLSParameters
	SCTPPort              int
	SCTPMap               string
}

// IsApplication reports whether this section carries an SCTP association
// (spec.md §3.3, kind == application).
func (m *MediaDescription) IsApplication() bool {
	return m.Kind == "application"
}

// IsLegacySCTP reports whether this section uses the legacy DTLS/SCTP
// profile (a=sctpmap) rather than the modern UDP/DTLS/SCTP profile
// (a=sctp-port), per spec.md §6.1.
func (m *MediaDescription) IsLegacySCTP() bool {
	return m.Profile == "DTLS/SCTP"
}

// SessionDescription models a full offer/answer/pranswer/rollback blob
// (spec.md §3.2). Group holds the top-level a=group entries verbatim
// (e.g. "BUNDLE 0 1"); use BundleMIDs to access the BUNDLE group's MIDs.
type SessionDescription struct {
	Type         string
	Origin       string
	MsidSemantic []string
	Group        []string
	Media        []MediaDescription
}

// BundleMIDs returns the ordered list of MIDs in the top-level BUNDLE
// group, or nil if there is none.
func (s *SessionDescription) BundleMIDs() []string {
	for _, g := range s.Group {
		fields := splitFields(g)
		if len(fields) > 0 && fields[0] == "BUNDLE" {
			return fields[1:]
		}
	}
	return nil
}
