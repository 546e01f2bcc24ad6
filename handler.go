package webrtc

import "sync/atomic"

// atomicHandler stores a single event-callback function that may be
// swapped and invoked from different goroutines, matching the
// atomic.Value-backed Onxxx handler fields used throughout the teacher's
// transports.
type atomicHandler struct {
	v atomic.Value
}

func (h *atomicHandler) store(f interface{}) {
	if f == nil {
		return
	}
	h.v.Store(f)
}

func (h *atomicHandler) load() interface{} {
	return h.v.Load()
}
