package webrtc

// OfferOptions configures CreateOffer. This module supports no offer-time
// options beyond the defaults (spec.md's Non-goals exclude ICE restart
// and offer-to-receive flags, which do not apply to a data-channel-only
// orchestrator).
type OfferOptions struct{}

// AnswerOptions configures CreateAnswer.
type AnswerOptions struct{}
