package webrtc

// SCTPCapabilities indicates the capabilities of an SCTPTransport, RFC 8841.
type SCTPCapabilities struct {
	MaxMessageSize float64
}
