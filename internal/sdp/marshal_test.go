package sdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	in := &SessionDescription{
		Type:  "offer",
		Group: []string{"BUNDLE 0"},
		Media: []MediaDescription{
			{
				Kind:    "application",
				Port:    9,
				Host:    "0.0.0.0",
				Profile: "UDP/DTLS/SCTP",
				Fmt:     []string{"webrtc-datachannel"},
				MID:     "0",
				ICE: ICEParameters{
					UsernameFragment: "ufrag1",
					Password:         "password1password1password1",
				},
				DTLS: DTLSParameters{
					Role: "auto",
					Fingerprints: []Fingerprint{
						{Algorithm: "sha-256", Value: "AB:CD:EF"},
					},
				},
				SCTPPort: 5000,
				ICECandidates: []Candidate{
					{
						Foundation: "1",
						Component:  1,
						Protocol:   "udp",
						Priority:   2130706431,
						Address:    "10.0.0.1",
						Port:       5000,
						Typ:        "host",
					},
				},
				ICECandidatesComplete: true,
			},
		},
	}

	raw := in.Marshal()

	out, err := Parse(raw, "offer")
	assert.NoError(t, err)
	assert.Equal(t, "offer", out.Type)
	assert.Equal(t, []string{"BUNDLE 0"}, out.Group)
	assert.Equal(t, []string{"0"}, out.BundleMIDs())

	assert.Len(t, out.Media, 1)
	media := out.Media[0]
	assert.Equal(t, "application", media.Kind)
	assert.Equal(t, "0", media.MID)
	assert.Equal(t, "ufrag1", media.ICE.UsernameFragment)
	assert.Equal(t, "password1password1password1", media.ICE.Password)
	assert.Equal(t, "auto", media.DTLS.Role)
	assert.Equal(t, []Fingerprint{{Algorithm: "sha-256", Value: "AB:CD:EF"}}, media.DTLS.Fingerprints)
	assert.Equal(t, 5000, media.SCTPPort)
	assert.True(t, media.ICECandidatesComplete)

	assert.Len(t, media.ICECandidates, 1)
	cand := media.ICECandidates[0]
	assert.Equal(t, "1", cand.Foundation)
	assert.Equal(t, uint16(1), cand.Component)
	assert.Equal(t, "udp", cand.Protocol)
	assert.Equal(t, uint32(2130706431), cand.Priority)
	assert.Equal(t, "10.0.0.1", cand.Address)
	assert.Equal(t, uint16(5000), cand.Port)
	assert.Equal(t, "host", cand.Typ)
}

func TestMarshalLegacySCTP(t *testing.T) {
	in := &SessionDescription{
		Type: "answer",
		Media: []MediaDescription{
			{
				Kind:    "application",
				Host:    "0.0.0.0",
				Profile: "DTLS/SCTP",
				Fmt:     []string{"5000"},
				MID:     "0",
				DTLS:    DTLSParameters{Role: "client"},
			},
		},
	}

	raw := in.Marshal()
	out, err := Parse(raw, "answer")
	assert.NoError(t, err)
	assert.True(t, out.Media[0].IsLegacySCTP())
	assert.Equal(t, "client", out.Media[0].DTLS.Role)
}

func TestParseCandidateAttribute(t *testing.T) {
	cand, err := ParseCandidateAttribute("candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host")
	assert.NoError(t, err)
	assert.Equal(t, "1", cand.Foundation)
	assert.Equal(t, "10.0.0.1", cand.Address)
	assert.Equal(t, "host", cand.Typ)
}
