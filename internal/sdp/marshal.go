package sdp

import (
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// Marshal renders s as RFC 8866 text, per spec.md §6.1. Field ordering
// follows pion/sdp/v3's own canonical writer.
func (s *SessionDescription) Marshal() string {
	desc := sdp.NewJSEPSessionDescription(false)
	desc.WithValueAttribute("msid-semantic", " WMS *")

	for i := range s.Media {
		desc.WithMedia(marshalMedia(&s.Media[i]))
	}

	if len(s.Group) > 0 {
		desc.WithValueAttribute(sdp.AttrKeyGroup, strings.Join(s.Group, " "))
	}

	return desc.Marshal()
}

func marshalMedia(m *MediaDescription) *sdp.MediaDescription {
	media := (&sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   m.Kind,
			Port:    sdp.RangedPort{Value: m.Port},
			Protos:  strings.Split(m.Profile, "/"),
			Formats: append([]string(nil), m.Fmt...),
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: hostOrDefault(m.Host)},
		},
	}).
		WithValueAttribute(sdp.AttrKeyMID, m.MID).
		WithICECredentials(m.ICE.UsernameFragment, m.ICE.Password)

	if m.ICE.Lite {
		media.WithPropertyAttribute(sdp.AttrKeyICELite)
	}

	if m.DTLS.Role != "" {
		media.WithValueAttribute(sdp.AttrKeyConnectionSetup, setupFromRole(m.DTLS.Role))
	}
	for _, f := range m.DTLS.Fingerprints {
		media = media.WithFingerprint(f.Algorithm, strings.ToUpper(f.Value))
	}

	if m.IsApplication() {
		if m.IsLegacySCTP() {
			media.WithPropertyAttribute("sctpmap:" + m.Fmt[0] + " webrtc-datachannel 65535")
		} else if m.SCTPPort != 0 {
			media.WithValueAttribute("sctp-port", strconv.Itoa(m.SCTPPort))
		}
	}

	for _, c := range m.ICECandidates {
		media.WithValueAttribute("candidate", marshalCandidate(c))
	}
	if m.ICECandidatesComplete {
		media.WithPropertyAttribute("end-of-candidates")
	}

	return media
}

func hostOrDefault(host string) string {
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

func setupFromRole(role string) string {
	switch role {
	case "client":
		return "active"
	case "server":
		return "passive"
	default:
		return "actpass"
	}
}

func marshalCandidate(c Candidate) string {
	fields := []string{
		c.Foundation,
		strconv.Itoa(int(c.Component)),
		c.Protocol,
		strconv.FormatUint(uint64(c.Priority), 10),
		c.Address,
		strconv.Itoa(int(c.Port)),
		"typ",
		c.Typ,
	}
	if c.RelatedAddress != "" {
		fields = append(fields, "raddr", c.RelatedAddress, "rport", strconv.Itoa(int(c.RelatedPort)))
	}
	if c.TCPType != "" {
		fields = append(fields, "tcptype", c.TCPType)
	}
	return strings.Join(fields, " ")
}
