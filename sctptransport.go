package webrtc

import (
	"fmt"
	"math"
	"sync"

	"github.com/pion/datachannel"
	"github.com/pion/logging"
	"github.com/pion/sctp"
)

// SCTPTransport carries data channels over the single DTLS transport that
// bundling collapses every media section onto, per spec.md §3.1/§4.4. At
// most one SCTPTransport exists for the lifetime of a PeerConnection.
type SCTPTransport struct {
	mu sync.Mutex

	dtlsTransport *DTLSTransport
	loggerFactory logging.LoggerFactory

	state SCTPTransportState
	port  uint16

	// mid is the m-line identifier the offer/answer engine bound this
	// transport to. Per spec.md invariant 4 it is set at most once and
	// never changes thereafter.
	mid *string
	// bundled records whether the m-line for this transport was folded
	// into the BUNDLE group (spec.md §4.2 step 9).
	bundled bool

	maxMessageSize float64
	maxChannels    uint16

	association *sctp.Association

	allocated map[uint16]bool

	onDataChannel atomicHandler
	onStateChange atomicHandler
}

func newSCTPTransport(dtls *DTLSTransport, loggerFactory logging.LoggerFactory) *SCTPTransport {
	t := &SCTPTransport{
		dtlsTransport: dtls,
		loggerFactory: loggerFactory,
		state:         SCTPTransportStateConnecting,
		port:          5000,
		allocated:     make(map[uint16]bool),
	}
	t.updateMessageSize()
	t.updateMaxChannels()
	return t
}

// Transport returns the DTLS transport this SCTP association runs over.
func (t *SCTPTransport) Transport() *DTLSTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dtlsTransport
}

// State returns the current SCTP transport state.
func (t *SCTPTransport) State() SCTPTransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnStateChange registers a handler invoked whenever the transport's state
// changes.
func (t *SCTPTransport) OnStateChange(f func(SCTPTransportState)) {
	t.onStateChange.store(f)
}

func (t *SCTPTransport) setState(s SCTPTransportState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()
	if f, ok := t.onStateChange.load().(func(SCTPTransportState)); ok {
		f(s)
	}
}

// MID returns the m-line identifier bound to this transport, or nil if it
// has not yet been bound by the offer/answer engine.
func (t *SCTPTransport) MID() *string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mid
}

// bindMID binds the transport's MID exactly once. Rebinding to a
// different value is a programmer error in the offer/answer engine and
// panics rather than silently corrupting the invariant.
func (t *SCTPTransport) bindMID(mid string, bundled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mid != nil {
		if *t.mid != mid {
			panic("webrtc: SCTP transport MID reassigned after binding")
		}
		t.bundled = bundled
		return
	}
	t.mid = &mid
	t.bundled = bundled
}

// Bundled reports whether this transport's m-line was collapsed into the
// BUNDLE group.
func (t *SCTPTransport) Bundled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bundled
}

// Port returns the SCTP port advertised in SDP for this transport.
func (t *SCTPTransport) Port() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port
}

// GetCapabilities returns the local SCTPCapabilities of the transport.
func (t *SCTPTransport) GetCapabilities() SCTPCapabilities {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SCTPCapabilities{MaxMessageSize: t.maxMessageSize}
}

// Start establishes the SCTP association over the already-connected DTLS
// transport. The DTLS client side opens the association with
// sctp.Client and the DTLS server side accepts it with sctp.Server.
func (t *SCTPTransport) Start(remoteCaps SCTPCapabilities) error {
	t.mu.Lock()
	conn := t.dtlsTransport
	t.mu.Unlock()

	if conn == nil || conn.conn == nil {
		return newInvalidStateErrorf("DTLS transport has not connected")
	}

	config := sctp.Config{
		NetConn:       conn.conn,
		LoggerFactory: t.loggerFactory,
	}

	var association *sctp.Association
	var err error
	if conn.Role() == DTLSRoleClient {
		association, err = sctp.Client(config)
	} else {
		association, err = sctp.Server(config)
	}
	if err != nil {
		t.setState(SCTPTransportStateClosed)
		return &UnknownError{Err: err}
	}

	t.mu.Lock()
	t.association = association
	t.maxMessageSize = t.calcMessageSize(remoteCaps.MaxMessageSize, t.maxMessageSize)
	t.mu.Unlock()

	t.setState(SCTPTransportStateConnected)

	go t.acceptDataChannels()

	return nil
}

// Stop closes the SCTP association.
func (t *SCTPTransport) Stop() error {
	t.mu.Lock()
	association := t.association
	t.association = nil
	t.mu.Unlock()

	t.setState(SCTPTransportStateClosed)

	if association == nil {
		return nil
	}
	return association.Close()
}

func (t *SCTPTransport) acceptDataChannels() {
	t.mu.Lock()
	association := t.association
	t.mu.Unlock()
	if association == nil {
		return
	}

	for {
		dc, err := datachannel.Accept(association, &datachannel.Config{LoggerFactory: t.loggerFactory})
		if err != nil {
			t.setState(SCTPTransportStateClosed)
			return
		}

		rtcDC := newDataChannelFromRemote(dc, t)

		if id := rtcDC.ID(); id != nil {
			t.markAllocated(*id)
		}
		t.invokeOnDataChannel(rtcDC)
	}
}

// OnDataChannel registers a handler invoked for every data channel opened
// by the remote peer, forwarded up to the PeerConnection's datachannel
// event (spec.md §4.4).
func (t *SCTPTransport) OnDataChannel(f func(*DataChannel)) {
	t.onDataChannel.store(f)
}

func (t *SCTPTransport) invokeOnDataChannel(dc *DataChannel) {
	if f, ok := t.onDataChannel.load().(func(*DataChannel)); ok {
		f(dc)
	}
}

func (t *SCTPTransport) updateMessageSize() {
	t.maxMessageSize = t.calcMessageSize(65536, 65536)
}

func (t *SCTPTransport) calcMessageSize(remoteMaxMessageSize, canSendSize float64) float64 {
	switch {
	case remoteMaxMessageSize == 0 && canSendSize == 0:
		return math.Inf(1)
	case remoteMaxMessageSize == 0:
		return canSendSize
	case canSendSize == 0:
		return remoteMaxMessageSize
	case canSendSize > remoteMaxMessageSize:
		return remoteMaxMessageSize
	default:
		return canSendSize
	}
}

func (t *SCTPTransport) updateMaxChannels() {
	t.maxChannels = sctpMaxInboundStreams
}

// allocateStreamID picks the lowest unused stream identifier of the
// correct parity for role, per spec.md §8 scenario 3: each side opens
// channels on its own parity so two concurrently-created channels never
// collide, and a closed channel's id becomes reusable.
func (t *SCTPTransport) allocateStreamID(client bool) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := uint16(0)
	if client {
		start = 1
	}
	for id := start; id < t.maxChannels; id += 2 {
		if !t.allocated[id] {
			t.allocated[id] = true
			return id
		}
	}
	panic("webrtc: SCTP stream identifiers exhausted")
}

func (t *SCTPTransport) markAllocated(id uint16) {
	t.mu.Lock()
	t.allocated[id] = true
	t.mu.Unlock()
}

func (t *SCTPTransport) releaseStreamID(id uint16) {
	t.mu.Lock()
	delete(t.allocated, id)
	t.mu.Unlock()
}

func (t *SCTPTransport) openChannel(params DataChannelParameters, client bool) (*datachannel.DataChannel, uint16, error) {
	t.mu.Lock()
	association := t.association
	t.mu.Unlock()
	if association == nil {
		return nil, 0, newInvalidStateErrorf("%w", ErrSCTPTransportNotEstablished)
	}

	id := t.allocateStreamID(client)

	cfg := &datachannel.Config{
		ChannelType:          channelTypeFromParameters(params),
		Priority:             datachannel.ChannelPriorityNormal,
		ReliabilityParameter: reliabilityParameter(params),
		Label:                params.Label,
		Protocol:             params.Protocol,
		Negotiated:           params.Negotiated,
		LoggerFactory:        t.loggerFactory,
	}

	dc, err := datachannel.Dial(association, id, cfg)
	if err != nil {
		t.releaseStreamID(id)
		return nil, 0, &UnknownError{Err: fmt.Errorf("open data channel: %w", err)}
	}
	return dc, id, nil
}

func channelTypeFromParameters(p DataChannelParameters) datachannel.ChannelType {
	switch {
	case p.MaxRetransmits != nil && p.Ordered:
		return datachannel.ChannelTypePartialReliableRexmit
	case p.MaxRetransmits != nil && !p.Ordered:
		return datachannel.ChannelTypePartialReliableRexmitUnordered
	case p.MaxPacketLifeTime != nil && p.Ordered:
		return datachannel.ChannelTypePartialReliableTimed
	case p.MaxPacketLifeTime != nil && !p.Ordered:
		return datachannel.ChannelTypePartialReliableTimedUnordered
	case !p.Ordered:
		return datachannel.ChannelTypeReliableUnordered
	default:
		return datachannel.ChannelTypeReliable
	}
}

func reliabilityParameter(p DataChannelParameters) uint32 {
	switch {
	case p.MaxRetransmits != nil:
		return uint32(*p.MaxRetransmits)
	case p.MaxPacketLifeTime != nil:
		return uint32(*p.MaxPacketLifeTime)
	default:
		return 0
	}
}
