package webrtc

import (
	"github.com/pion/logging"
	"github.com/pion/transport/v4/vnet"
)

// SettingEngine allows influencing orchestrator behaviour in ways not
// exposed by the public PeerConnection API: logging, the ephemeral UDP
// port range, and network-stack substitution for tests. Grounded on
// pion/webrtc's SettingEngine, trimmed to what the data-channel-only
// transport assembly (§4.4) actually consumes.
type SettingEngine struct {
	ephemeralUDP struct {
		PortMin uint16
		PortMax uint16
	}
	candidates struct {
		ICENetworkTypes []string
	}
	net            *vnet.Net
	LoggerFactory  logging.LoggerFactory
	iceIdGenerator func() string
}

// SetEphemeralUDPPortRange limits the local UDP ports used by gathered
// host candidates.
func (e *SettingEngine) SetEphemeralUDPPortRange(portMin, portMax uint16) error {
	if portMin >= portMax {
		return newInvalidAccessErrorf("portMin must be less than portMax")
	}
	e.ephemeralUDP.PortMin = portMin
	e.ephemeralUDP.PortMax = portMax
	return nil
}

// SetNet sets the VNet instance the ICE gatherer should use, letting
// tests run two PeerConnections over a simulated network instead of the
// host's real interfaces.
func (e *SettingEngine) SetNet(n *vnet.Net) {
	e.net = n
}

// SetICECredentialIDGenerator stores a generator for ICE ufrag/pwd
// strings. ICE gathering does not consult it: the ICE agent generates
// its own credentials.
func (e *SettingEngine) SetICECredentialIDGenerator(gen func() string) {
	e.iceIdGenerator = gen
}

// getLoggerFactory returns e's logger factory, defaulting to
// pion/logging's default factory so a zero-value SettingEngine is always
// usable.
func (e *SettingEngine) getLoggerFactory() logging.LoggerFactory {
	if e.LoggerFactory != nil {
		return e.LoggerFactory
	}
	return logging.NewDefaultLoggerFactory()
}
