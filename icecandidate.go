package webrtc

import (
	"fmt"

	"github.com/pion/ice/v4"

	dcsdp "github.com/MaxTheWhale/dcpeer/internal/sdp"
)

// ICECandidateType represents the type of an ICE candidate, RFC 8445 §5.1.1.
type ICECandidateType int

const (
	// ICECandidateTypeHost is a candidate obtained by binding to a port
	// from a local interface.
	ICECandidateTypeHost ICECandidateType = iota + 1
	// ICECandidateTypeSrflx is a server reflexive candidate, typically
	// obtained from a STUN server.
	ICECandidateTypeSrflx
	// ICECandidateTypePrflx is a peer reflexive candidate.
	ICECandidateTypePrflx
	// ICECandidateTypeRelay is a relay candidate, typically obtained from
	// a TURN server.
	ICECandidateTypeRelay
)

func (t ICECandidateType) String() string {
	switch t {
	case ICECandidateTypeHost:
		return "host"
	case ICECandidateTypeSrflx:
		return "srflx"
	case ICECandidateTypePrflx:
		return "prflx"
	case ICECandidateTypeRelay:
		return "relay"
	default:
		return unknownStr
	}
}

// ICECandidate represents an ICE candidate as carried in a media
// description (spec.md §3.4). SDPMid/SDPMLineIndex are not part of it;
// they travel on ICECandidateInit, delivered through AddICECandidate.
type ICECandidate struct {
	Foundation     string
	Priority       uint32
	Address        string
	Protocol       string
	Port           uint16
	Typ            ICECandidateType
	Component      uint16
	RelatedAddress string
	RelatedPort    uint16
	TCPType        string
}

func newICECandidateFromICE(c ice.Candidate) (ICECandidate, error) {
	typ, err := convertCandidateTypeFromICE(c.Type())
	if err != nil {
		return ICECandidate{}, err
	}

	out := ICECandidate{
		Foundation: c.Foundation(),
		Priority:   c.Priority(),
		Address:    c.Address(),
		Protocol:   c.NetworkType().NetworkShort(),
		Port:       uint16(c.Port()), //nolint:gosec
		Typ:        typ,
		Component:  c.Component(),
	}

	if rel := c.RelatedAddress(); rel != nil {
		out.RelatedAddress = rel.Address
		out.RelatedPort = uint16(rel.Port) //nolint:gosec
	}

	return out, nil
}

func convertCandidateTypeFromICE(t ice.CandidateType) (ICECandidateType, error) {
	switch t {
	case ice.CandidateTypeHost:
		return ICECandidateTypeHost, nil
	case ice.CandidateTypeServerReflexive:
		return ICECandidateTypeSrflx, nil
	case ice.CandidateTypePeerReflexive:
		return ICECandidateTypePrflx, nil
	case ice.CandidateTypeRelay:
		return ICECandidateTypeRelay, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

func (c ICECandidate) toSDPModel() dcsdp.Candidate {
	return dcsdp.Candidate{
		Foundation:     c.Foundation,
		Component:      c.Component,
		Protocol:       c.Protocol,
		Priority:       c.Priority,
		Address:        c.Address,
		Port:           c.Port,
		Typ:            c.Typ.String(),
		RelatedAddress: c.RelatedAddress,
		RelatedPort:    c.RelatedPort,
		TCPType:        c.TCPType,
	}
}

// ICECandidateInit represents a trickled candidate as delivered through
// AddICECandidate (spec.md §3.4, §4.3): at least one of SDPMid or
// SDPMLineIndex is required on a non-empty candidate; both is permitted.
type ICECandidateInit struct {
	Candidate     string
	SDPMid        *string
	SDPMLineIndex *uint16
}
