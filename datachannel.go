package webrtc

import (
	"io"
	"sync"

	"github.com/pion/datachannel"
	"github.com/pion/logging"
)

const dataChannelBufferSize = 16384

// DataChannel is the sole transport primitive this module exposes: a
// bidirectional stream of messages carried over the bundled SCTP
// association (spec.md §3.1, §4.8). A DataChannel created locally before
// negotiation completes starts in DataChannelStateConnecting and moves to
// DataChannelStateOpen once the lazily-created SCTP transport associates
// and its stream dials successfully.
type DataChannel struct {
	mu sync.RWMutex

	label             string
	ordered           bool
	maxPacketLifeTime *uint16
	maxRetransmits    *uint16
	protocol          string
	negotiated        bool
	id                *uint16
	readyState        DataChannelState

	onMessageHandler func(DataChannelMessage)
	onOpenHandler    func()
	onCloseHandler   func()

	sctpTransport *SCTPTransport
	dataChannel   *datachannel.DataChannel

	log logging.LeveledLogger
}

// newDataChannel constructs a DataChannel that has not yet dialled an
// SCTP stream, used by PeerConnection.CreateDataChannel's lazy-SCTP path
// (spec.md §4.8: the SCTP transport is created on first call if needed).
func newDataChannel(params DataChannelParameters, log logging.LeveledLogger) (*DataChannel, error) {
	if params.MaxPacketLifeTime != nil && params.MaxRetransmits != nil {
		return nil, newInvalidAccessErrorf("%w", ErrDataChannelConflictingLimits)
	}
	return &DataChannel{
		label:             params.Label,
		ordered:           params.Ordered,
		maxPacketLifeTime: params.MaxPacketLifeTime,
		maxRetransmits:    params.MaxRetransmits,
		protocol:          params.Protocol,
		negotiated:        params.Negotiated,
		id:                params.ID,
		readyState:        DataChannelStateConnecting,
		log:               log,
	}, nil
}

// newDataChannelFromRemote wraps a data channel opened by the remote peer,
// discovered via SCTPTransport.acceptDataChannels.
func newDataChannelFromRemote(dc *datachannel.DataChannel, t *SCTPTransport) *DataChannel {
	var ordered = true
	var maxRetransmits *uint16
	var maxPacketLifeTime *uint16
	val := uint16(dc.Config.ReliabilityParameter) //nolint:gosec

	switch dc.Config.ChannelType {
	case datachannel.ChannelTypeReliable:
		ordered = true
	case datachannel.ChannelTypeReliableUnordered:
		ordered = false
	case datachannel.ChannelTypePartialReliableRexmit:
		ordered = true
		maxRetransmits = &val
	case datachannel.ChannelTypePartialReliableRexmitUnordered:
		ordered = false
		maxRetransmits = &val
	case datachannel.ChannelTypePartialReliableTimed:
		ordered = true
		maxPacketLifeTime = &val
	case datachannel.ChannelTypePartialReliableTimedUnordered:
		ordered = false
		maxPacketLifeTime = &val
	}

	sid := dc.StreamIdentifier()
	d := &DataChannel{
		id:                &sid,
		label:             dc.Config.Label,
		protocol:          dc.Config.Protocol,
		negotiated:        dc.Config.Negotiated,
		ordered:           ordered,
		maxPacketLifeTime: maxPacketLifeTime,
		maxRetransmits:    maxRetransmits,
		readyState:        DataChannelStateOpen,
		sctpTransport:     t,
		dataChannel:       dc,
	}
	go d.readLoop()
	return d
}

// openOverSCTP dials the SCTP stream for a locally-created, not-yet-open
// DataChannel, per spec.md §4.8's "connect driver opens every pending
// local data channel once the SCTP transport reaches connected".
func (d *DataChannel) openOverSCTP(t *SCTPTransport, client bool) error {
	d.mu.Lock()
	if d.readyState != DataChannelStateConnecting {
		d.mu.Unlock()
		return nil
	}
	params := DataChannelParameters{
		Label:             d.label,
		Ordered:           d.ordered,
		MaxPacketLifeTime: d.maxPacketLifeTime,
		MaxRetransmits:    d.maxRetransmits,
		Protocol:          d.protocol,
		Negotiated:        d.negotiated,
	}
	d.mu.Unlock()

	dc, id, err := t.openChannel(params, client)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sctpTransport = t
	d.dataChannel = dc
	d.id = &id
	d.readyState = DataChannelStateOpen
	d.mu.Unlock()

	d.fireOpen()
	go d.readLoop()
	return nil
}

// Transport returns the SCTP transport this data channel runs over, or
// nil if it has not yet opened.
func (d *DataChannel) Transport() *SCTPTransport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sctpTransport
}

// Label returns the channel's label.
func (d *DataChannel) Label() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.label
}

// ID returns the channel's stream identifier, or nil if not yet assigned.
func (d *DataChannel) ID() *uint16 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

// ReadyState returns the channel's current state.
func (d *DataChannel) ReadyState() DataChannelState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readyState
}

// OnOpen registers a handler invoked when the channel's SCTP stream opens.
func (d *DataChannel) OnOpen(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOpenHandler = f
}

func (d *DataChannel) fireOpen() {
	d.mu.RLock()
	hdlr := d.onOpenHandler
	d.mu.RUnlock()
	if hdlr != nil {
		hdlr()
	}
}

// OnClose registers a handler invoked when the channel closes.
func (d *DataChannel) OnClose(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onCloseHandler = f
}

func (d *DataChannel) fireClose() {
	d.mu.RLock()
	hdlr := d.onCloseHandler
	d.mu.RUnlock()
	if hdlr != nil {
		hdlr()
	}
}

// OnMessage registers a handler invoked when a message arrives from the
// remote peer.
func (d *DataChannel) OnMessage(f func(DataChannelMessage)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onMessageHandler = f
}

func (d *DataChannel) fireMessage(msg DataChannelMessage) {
	d.mu.RLock()
	hdlr := d.onMessageHandler
	d.mu.RUnlock()
	if hdlr != nil {
		hdlr(msg)
	}
}

func (d *DataChannel) readLoop() {
	for {
		buffer := make([]byte, dataChannelBufferSize)
		n, isString, err := d.dataChannel.ReadDataChannel(buffer)
		if err == io.ErrShortBuffer {
			continue
		}
		if err != nil {
			d.mu.Lock()
			d.readyState = DataChannelStateClosed
			t := d.sctpTransport
			id := d.id
			d.mu.Unlock()
			if t != nil && id != nil {
				t.releaseStreamID(*id)
			}
			d.fireClose()
			return
		}
		d.fireMessage(DataChannelMessage{Data: buffer[:n], IsString: isString})
	}
}

// Send sends a binary message to the remote peer.
func (d *DataChannel) Send(data []byte) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	if len(data) == 0 {
		data = []byte{0}
	}
	_, err := d.dataChannel.WriteDataChannel(data, false)
	return err
}

// SendText sends a text message to the remote peer.
func (d *DataChannel) SendText(s string) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	data := []byte(s)
	if len(data) == 0 {
		data = []byte{0}
	}
	_, err := d.dataChannel.WriteDataChannel(data, true)
	return err
}

func (d *DataChannel) ensureOpen() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.readyState != DataChannelStateOpen {
		return newInvalidStateErrorf("data channel is not open")
	}
	return nil
}

// Close closes the data channel. It may be called by either the side
// that created it or the side that received it.
func (d *DataChannel) Close() error {
	d.mu.Lock()
	if d.readyState == DataChannelStateClosing || d.readyState == DataChannelStateClosed {
		d.mu.Unlock()
		return nil
	}
	d.readyState = DataChannelStateClosing
	dc := d.dataChannel
	t := d.sctpTransport
	id := d.id
	d.mu.Unlock()

	if t != nil && id != nil {
		t.releaseStreamID(*id)
	}
	if dc == nil {
		return nil
	}
	return dc.Close()
}
