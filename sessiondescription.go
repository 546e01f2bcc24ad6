package webrtc

import (
	dcsdp "github.com/MaxTheWhale/dcpeer/internal/sdp"
)

// SessionDescription is an SDP offer, answer, pranswer or rollback blob,
// per spec.md §3.2. SDP carries the raw wire text; once parsed it is not
// re-parsed, matching the "parse once" discipline of the offer/answer
// engine (spec.md §4.1/§4.2).
type SessionDescription struct {
	Type SDPType
	SDP  string

	parsed *dcsdp.SessionDescription
}

// parse lazily decodes SDP into the structured internal model the
// offer/answer engine operates on.
func (d *SessionDescription) parse() (*dcsdp.SessionDescription, error) {
	if d.parsed != nil {
		return d.parsed, nil
	}
	parsed, err := dcsdp.Parse(d.SDP, d.Type.String())
	if err != nil {
		return nil, newInvalidAccessErrorf("%w: %v", ErrSDPUnmarshalling, err)
	}
	d.parsed = parsed
	return parsed, nil
}

func newSessionDescriptionFromModel(typ SDPType, model *dcsdp.SessionDescription) SessionDescription {
	return SessionDescription{Type: typ, SDP: model.Marshal(), parsed: model}
}
