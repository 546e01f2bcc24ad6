package sdp

import (
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// Parse decodes raw RFC 8866 text into a SessionDescription, the dual of
// Marshal. sdpType is supplied by the caller (the wire format carries no
// type marker; type comes from the enclosing SessionDescription per
// spec.md §3.2).
func Parse(raw, sdpType string) (*SessionDescription, error) {
	parsed := &sdp.SessionDescription{}
	if err := parsed.UnmarshalString(raw); err != nil {
		return nil, err
	}

	out := &SessionDescription{Type: sdpType}

	if group, ok := parsed.Attribute("group"); ok {
		out.Group = append(out.Group, group)
	}

	sessionUfrag, _ := parsed.Attribute("ice-ufrag")
	sessionPwd, _ := parsed.Attribute("ice-pwd")
	_, sessionLite := parsed.Attribute(sdp.AttrKeyICELite)

	for _, m := range parsed.MediaDescriptions {
		media := MediaDescription{
			Kind:    m.MediaName.Media,
			Port:    m.MediaName.Port.Value,
			Profile: strings.Join(m.MediaName.Protos, "/"),
			Fmt:     append([]string(nil), m.MediaName.Formats...),
		}
		if m.ConnectionInformation != nil && m.ConnectionInformation.Address != nil {
			media.Host = m.ConnectionInformation.Address.Address
		}
		if mid, ok := m.Attribute(sdp.AttrKeyMID); ok {
			media.MID = mid
		}

		ufrag, hasUfrag := m.Attribute("ice-ufrag")
		pwd, hasPwd := m.Attribute("ice-pwd")
		if !hasUfrag {
			ufrag = sessionUfrag
		}
		if !hasPwd {
			pwd = sessionPwd
		}
		_, lite := m.Attribute(sdp.AttrKeyICELite)
		media.ICE = ICEParameters{
			UsernameFragment: ufrag,
			Password:         pwd,
			Lite:             lite || sessionLite,
		}

		if setup, ok := m.Attribute(sdp.AttrKeyConnectionSetup); ok {
			role, err := roleFromSetup(setup)
			if err != nil {
				return nil, err
			}
			media.DTLS.Role = role
		}
		for _, a := range m.Attributes {
			if a.Key == "fingerprint" {
				fields := strings.Fields(a.Value)
				if len(fields) == 2 {
					media.DTLS.Fingerprints = append(media.DTLS.Fingerprints, Fingerprint{
						Algorithm: fields[0],
						Value:     fields[1],
					})
				}
			}
		}

		if port, ok := m.Attribute("sctp-port"); ok {
			if n, err := strconv.Atoi(port); err == nil {
				media.SCTPPort = n
			}
		}
		if sctpmap, ok := m.Attribute("sctpmap"); ok {
			media.SCTPMap = sctpmap
		}

		for _, a := range m.Attributes {
			switch a.Key {
			case "candidate":
				cand, err := parseCandidate(a.Value)
				if err != nil {
					return nil, err
				}
				media.ICECandidates = append(media.ICECandidates, cand)
			case "end-of-candidates":
				media.ICECandidatesComplete = true
			}
		}

		out.Media = append(out.Media, media)
	}

	return out, nil
}

// ParseCandidateAttribute parses a trickled candidate as delivered to
// addIceCandidate, which carries the `candidate:` prefix used in the
// JSEP RTCIceCandidate.candidate field rather than the bare attribute
// value Parse extracts from a full session description.
func ParseCandidateAttribute(raw string) (Candidate, error) {
	value := strings.TrimPrefix(raw, "candidate:")
	return parseCandidate(value)
}

func roleFromSetup(setup string) (string, error) {
	switch setup {
	case "actpass":
		return "auto", nil
	case "active":
		return "client", nil
	case "passive":
		return "server", nil
	default:
		return "", errUnknownSetup(setup)
	}
}

// parseCandidate parses the field layout written by marshalCandidate:
// "<foundation> <component> <protocol> <priority> <address> <port> typ
// <type> [raddr <addr> rport <port>] [tcptype <type>]".
func parseCandidate(value string) (Candidate, error) {
	fields := strings.Fields(value)
	if len(fields) < 8 {
		return Candidate{}, errMalformedCandidate(value)
	}

	component, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return Candidate{}, errMalformedCandidate(value)
	}
	priority, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return Candidate{}, errMalformedCandidate(value)
	}
	port, err := strconv.ParseUint(fields[5], 10, 16)
	if err != nil {
		return Candidate{}, errMalformedCandidate(value)
	}

	cand := Candidate{
		Foundation: fields[0],
		Component:  uint16(component),
		Protocol:   fields[2],
		Priority:   uint32(priority),
		Address:    fields[4],
		Port:       uint16(port),
		Typ:        fields[7],
	}

	for i := 8; i+1 < len(fields); i += 2 {
		switch fields[i] {
		case "raddr":
			cand.RelatedAddress = fields[i+1]
		case "rport":
			if p, err := strconv.ParseUint(fields[i+1], 10, 16); err == nil {
				cand.RelatedPort = uint16(p)
			}
		case "tcptype":
			cand.TCPType = fields[i+1]
		}
	}

	return cand, nil
}
