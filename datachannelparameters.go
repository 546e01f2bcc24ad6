package webrtc

// DataChannelParameters describes a data channel to be created by
// CreateDataChannel (spec.md §4.8). MaxPacketLifeTime and MaxRetransmits
// are mutually exclusive: setting both is rejected.
type DataChannelParameters struct {
	Label             string
	Ordered           bool
	MaxPacketLifeTime *uint16
	MaxRetransmits    *uint16
	Protocol          string
	Negotiated        bool
	ID                *uint16
}

// DataChannelMessage carries a message delivered over a data channel.
type DataChannelMessage struct {
	Data     []byte
	IsString bool
}
