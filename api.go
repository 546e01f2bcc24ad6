package webrtc

// API bundles settings shared across the PeerConnections it constructs,
// mirroring pion/webrtc's API object. This orchestrator only ever needs
// a SettingEngine: there is no MediaEngine or Interceptor registry
// without RTP/RTCP in scope.
type API struct {
	settingEngine *SettingEngine
}

// NewAPI creates an API object carrying the supplied options. A
// PeerConnection constructed with no API at all (the package-level
// NewPeerConnection) gets a zero-value SettingEngine.
func NewAPI(options ...func(*API)) *API {
	a := &API{}
	for _, o := range options {
		o(a)
	}
	if a.settingEngine == nil {
		a.settingEngine = &SettingEngine{}
	}
	return a
}

// WithSettingEngine allows providing a SettingEngine to the API.
// Settings should not be changed after passing the engine to an API.
func WithSettingEngine(s SettingEngine) func(*API) {
	return func(a *API) {
		a.settingEngine = &s
	}
}
