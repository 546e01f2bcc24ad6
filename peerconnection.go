package webrtc

import (
	"context"
	"strconv"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/randutil"

	dcsdp "github.com/MaxTheWhale/dcpeer/internal/sdp"
)

// PeerConnection binds together the ICE, DTLS, and SCTP transports needed
// to carry data channels between two endpoints, mediates the SDP
// offer/answer exchange, and aggregates child-transport states into the
// connection states an application observes (spec.md §3.1). This
// orchestrator is restricted to data-channel-only connections: it
// assembles at most one ICE/DTLS/SCTP transport triple, created lazily,
// rather than a set of transports per BUNDLE group. A future media
// extension would generalise the single pointers below into sets.
type PeerConnection struct {
	mu sync.RWMutex

	config       Configuration
	certificates []Certificate

	pendingLocalDescription  *SessionDescription
	currentLocalDescription  *SessionDescription
	pendingRemoteDescription *SessionDescription
	currentRemoteDescription *SessionDescription

	signalingState     SignalingState
	iceGatheringState  ICEGatheringState
	iceConnectionState ICEConnectionState
	connectionState    PeerConnectionState

	allocatedMIDs map[string]bool
	sctpMLineIdx  int

	iceGatherer   *ICEGatherer
	iceTransport  *ICETransport
	dtlsTransport *DTLSTransport
	sctpTransport *SCTPTransport

	remoteICEParams  *ICEParameters
	remoteDTLSParams *DTLSParameters
	remoteSCTPCaps   SCTPCapabilities
	remoteSCTPPort   int

	pendingDataChannels []*DataChannel

	cname    string
	streamID string

	isClosed   *atomicBool
	closedOnce sync.Once
	closedCh   chan struct{}

	negotiationFlag *atomicBool
	ops             *operations

	gatherMu   sync.Mutex
	gatherCond *sync.Cond

	onSignalingStateChange     atomicHandler
	onICEGatheringStateChange  atomicHandler
	onICEConnectionStateChange atomicHandler
	onConnectionStateChange    atomicHandler
	onDataChannel              atomicHandler
	onNegotiationNeeded        atomicHandler

	api           *API
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// NewPeerConnection constructs a PeerConnection with a fresh certificate
// bundle, per spec.md §3.6. No transport is created until the application
// requests a data channel or a remote offer carries an application
// section (spec.md §3.6's lazy-transport lifecycle). It is shorthand for
// NewAPI().NewPeerConnection, for callers with no SettingEngine to supply.
func NewPeerConnection(config Configuration) (*PeerConnection, error) {
	return NewAPI().NewPeerConnection(config)
}

// NewPeerConnection constructs a PeerConnection using api's SettingEngine,
// letting callers substitute a vnet.Net, restrict the ephemeral UDP port
// range, or otherwise influence transport assembly without touching the
// public Configuration surface.
func (api *API) NewPeerConnection(config Configuration) (*PeerConnection, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	cert, err := generateCertificate()
	if err != nil {
		return nil, err
	}

	cname, err := randutil.GenerateCryptoRandomString(32, randomIDAlphabet)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}
	streamID, err := randutil.GenerateCryptoRandomString(32, randomIDAlphabet)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	loggerFactory := api.settingEngine.getLoggerFactory()

	pc := &PeerConnection{
		config:             config,
		certificates:       []Certificate{*cert},
		signalingState:     SignalingStateStable,
		iceGatheringState:  ICEGatheringStateNew,
		iceConnectionState: ICEConnectionStateNew,
		connectionState:    PeerConnectionStateNew,
		allocatedMIDs:      make(map[string]bool),
		sctpMLineIdx:       -1,
		cname:              cname,
		streamID:           streamID,
		isClosed:           &atomicBool{},
		closedCh:           make(chan struct{}),
		negotiationFlag:    &atomicBool{},
		api:                api,
		loggerFactory:      loggerFactory,
		log:                loggerFactory.NewLogger("pc"),
	}
	pc.ops = newOperations(pc.negotiationFlag, pc.fireNegotiationNeeded)
	pc.gatherCond = sync.NewCond(&pc.gatherMu)

	return pc, nil
}

// waitGatherComplete blocks until the ICE gathering state reaches
// complete, the suspension point setLocalDescription takes per spec.md
// §5. recomputeStates broadcasts gatherCond every time it runs.
func (pc *PeerConnection) waitGatherComplete() {
	pc.gatherMu.Lock()
	defer pc.gatherMu.Unlock()
	for pc.ICEGatheringState() != ICEGatheringStateComplete {
		pc.gatherCond.Wait()
	}
}

func dtlsRoleFromString(s string) DTLSRole {
	switch s {
	case "client":
		return DTLSRoleClient
	case "server":
		return DTLSRoleServer
	default:
		return DTLSRoleAuto
	}
}

func candidateFromSDPModel(c dcsdp.Candidate) ICECandidate {
	return ICECandidate{
		Foundation:     c.Foundation,
		Component:      c.Component,
		Protocol:       c.Protocol,
		Priority:       c.Priority,
		Address:        c.Address,
		Port:           c.Port,
		Typ:            iceCandidateTypeFromString(c.Typ),
		RelatedAddress: c.RelatedAddress,
		RelatedPort:    c.RelatedPort,
		TCPType:        c.TCPType,
	}
}

func (pc *PeerConnection) closed() bool {
	return pc.isClosed.get()
}

// allocateMID returns the lowest non-negative integer, as a string, not
// already present in allocated (spec.md §4.2 step 5, §3.5 invariant 2).
func allocateMID(allocated map[string]bool) string {
	for i := 0; ; i++ {
		candidate := strconv.Itoa(i)
		if !allocated[candidate] {
			return candidate
		}
	}
}

func (pc *PeerConnection) recordAllocatedMID(mid string) {
	pc.allocatedMIDs[mid] = true
}

// CreateOffer builds a fresh offer describing the peer connection's
// current SCTP transport, if any (spec.md §4.2 "createOffer"). It does
// not mutate the connection's state; the result is only committed by a
// subsequent SetLocalDescription.
func (pc *PeerConnection) CreateOffer(_ *OfferOptions) (SessionDescription, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	if pc.closed() {
		return SessionDescription{}, newInvalidStateErrorf("%w", ErrConnectionClosed)
	}

	model := &dcsdp.SessionDescription{Type: "offer", MsidSemantic: []string{"WMS *"}}

	if pc.sctpTransport != nil {
		mid := pc.sctpTransport.MID()
		midStr := ""
		if mid != nil {
			midStr = *mid
		} else {
			midStr = allocateMID(pc.allocatedMIDs)
		}
		model.Media = append(model.Media, pc.buildApplicationMedia(midStr, "auto"))
		model.Group = append(model.Group, bundleGroupType+" "+midStr)
	}

	return newSessionDescriptionFromModel(SDPTypeOffer, model), nil
}

// CreateAnswer builds an answer matching the current remote offer
// (spec.md §4.2 "createAnswer").
func (pc *PeerConnection) CreateAnswer(_ *AnswerOptions) (SessionDescription, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if pc.signalingState != SignalingStateHaveRemoteOffer && pc.signalingState != SignalingStateHaveLocalPranswer {
		return SessionDescription{}, newInvalidStateErrorf(
			"cannot create answer in signaling state %q", pc.signalingState)
	}

	model := &dcsdp.SessionDescription{Type: "answer", MsidSemantic: []string{"WMS *"}}

	if pc.sctpTransport != nil {
		mid := pc.sctpTransport.MID()
		midStr := ""
		if mid != nil {
			midStr = *mid
		}
		role := "client"
		if pc.dtlsTransport != nil {
			if r := pc.dtlsTransport.Role(); r == DTLSRoleServer {
				role = "server"
			}
		}
		model.Media = append(model.Media, pc.buildApplicationMedia(midStr, role))
		model.Group = append(model.Group, bundleGroupType+" "+midStr)
	}

	return newSessionDescriptionFromModel(SDPTypeAnswer, model), nil
}

// buildApplicationMedia renders the single application m-section this
// orchestrator ever emits, using whatever ICE/DTLS state is currently
// available. role is "auto", "client", or "server".
func (pc *PeerConnection) buildApplicationMedia(mid, role string) dcsdp.MediaDescription {
	media := dcsdp.MediaDescription{
		Kind: mediaKindApplication,
		Host: discardHost,
		Port: discardPort,
		MID:  mid,
	}

	if pc.config.SCTPLegacySDP {
		media.Profile = profileLegacySCTP
		media.Fmt = []string{"5000"}
	} else {
		media.Profile = profileModernSCTP
		media.Fmt = []string{fmtModernSCTP}
		media.SCTPPort = 5000
	}

	if pc.iceGatherer != nil {
		if params, err := pc.iceGatherer.GetLocalParameters(); err == nil {
			media.ICE = dcsdp.ICEParameters{UsernameFragment: params.UsernameFragment, Password: params.Password}
		}
		if candidates, err := pc.iceGatherer.GetLocalCandidates(); err == nil {
			for _, c := range candidates {
				media.ICECandidates = append(media.ICECandidates, c.toSDPModel())
			}
			if len(candidates) > 0 {
				media.Host = candidates[0].Address
				media.Port = int(candidates[0].Port)
			}
		}
	}

	if pc.dtlsTransport != nil {
		if params, err := pc.dtlsTransport.GetLocalParameters(); err == nil {
			for _, fp := range params.Fingerprints {
				media.DTLS.Fingerprints = append(media.DTLS.Fingerprints, dcsdp.Fingerprint{
					Algorithm: fp.Algorithm, Value: fp.Value,
				})
			}
		}
	}
	media.DTLS.Role = role

	return media
}

// SetLocalDescription applies desc as the local half of the offer/answer
// exchange, per spec.md §4.2. A nil desc creates and applies the
// implicit offer or answer for the current signaling state. Validation,
// MID binding, role assignment, ICE gathering, and scheduling the
// connect driver all happen within this single call, matching the
// shared pipeline both Set*Description methods drive.
func (pc *PeerConnection) SetLocalDescription(desc *SessionDescription) error {
	pc.mu.Lock()

	if pc.closed() {
		pc.mu.Unlock()
		return newInvalidStateErrorf("%w", ErrConnectionClosed)
	}

	var sdpType SDPType
	if desc == nil || desc.SDP == "" {
		t, err := defaultImplicitSDPType(pc.signalingState)
		if err != nil {
			pc.mu.Unlock()
			return err
		}
		sdpType = t
	} else {
		sdpType = desc.Type
		if _, err := desc.parse(); err != nil {
			pc.mu.Unlock()
			return err
		}
	}

	nextState, err := nextSignalingState(pc.signalingState, signalingOpSetLocal, sdpType)
	if err != nil {
		pc.mu.Unlock()
		return err
	}

	if pc.sctpTransport != nil && pc.sctpTransport.MID() == nil {
		mid := allocateMID(pc.allocatedMIDs)
		pc.sctpTransport.bindMID(mid, false)
		pc.recordAllocatedMID(mid)
	}

	if sdpType == SDPTypeOffer && pc.iceTransport != nil && pc.iceTransport.Role() == 0 {
		pc.iceTransport.SetRole(ICERoleControlling)
	}

	gatherer := pc.iceGatherer
	pc.mu.Unlock()

	if gatherer != nil {
		if err := gatherer.Gather(); err != nil {
			return err
		}
		pc.waitGatherComplete()
	}

	pc.mu.Lock()

	model := &dcsdp.SessionDescription{Type: sdpType.String(), MsidSemantic: []string{"WMS *"}}
	if pc.sctpTransport != nil {
		mid := ""
		if m := pc.sctpTransport.MID(); m != nil {
			mid = *m
		}
		dtlsRole := "auto"
		if sdpType != SDPTypeOffer && pc.dtlsTransport != nil {
			dtlsRole = pc.dtlsTransport.Role().String()
		}
		model.Media = append(model.Media, pc.buildApplicationMedia(mid, dtlsRole))
		model.Group = append(model.Group, bundleGroupType+" "+mid)
	}

	final := newSessionDescriptionFromModel(sdpType, model)

	switch nextState {
	case SignalingStateHaveLocalOffer, SignalingStateHaveLocalPranswer:
		pc.pendingLocalDescription = &final
	case SignalingStateStable:
		pc.currentLocalDescription = &final
		pc.pendingLocalDescription = nil
		if pc.pendingRemoteDescription != nil {
			pc.currentRemoteDescription = pc.pendingRemoteDescription
			pc.pendingRemoteDescription = nil
		}
	}
	pc.signalingState = nextState
	pc.mu.Unlock()

	if f, ok := pc.onSignalingStateChange.load().(func(SignalingState)); ok {
		f(nextState)
	}

	pc.scheduleConnectDriver()
	return nil
}

// validateAnswerMatchesOfferLocked checks that answer's (kind, mid)
// sequence matches the offer this connection sent, per spec.md §4.2's
// answer validation rule. Caller must hold pc.mu.
func (pc *PeerConnection) validateAnswerMatchesOfferLocked(answer *dcsdp.SessionDescription) error {
	offer := pc.pendingLocalDescription
	if offer == nil {
		offer = pc.currentLocalDescription
	}
	if offer == nil || offer.parsed == nil {
		return nil
	}
	if len(offer.parsed.Media) != len(answer.Media) {
		return newInvalidAccessErrorf("%w", ErrAnswerMediaMismatch)
	}
	for i := range offer.parsed.Media {
		if offer.parsed.Media[i].Kind != answer.Media[i].Kind ||
			offer.parsed.Media[i].MID != answer.Media[i].MID {
			return newInvalidAccessErrorf("%w", ErrAnswerMediaMismatch)
		}
	}
	return nil
}

// SetRemoteDescription applies desc as the remote half of the offer/answer
// exchange, per spec.md §4.2. It lazily creates the SCTP transport when
// the remote description is the first to carry an application section,
// binds the transport's MID, assigns ICE and DTLS roles, forwards any
// candidates already present in the description, and schedules the
// connect driver.
func (pc *PeerConnection) SetRemoteDescription(desc SessionDescription) error {
	pc.mu.Lock()

	if pc.closed() {
		pc.mu.Unlock()
		return newInvalidStateErrorf("%w", ErrConnectionClosed)
	}

	model, err := desc.parse()
	if err != nil {
		pc.mu.Unlock()
		return err
	}

	nextState, err := nextSignalingState(pc.signalingState, signalingOpSetRemote, desc.Type)
	if err != nil {
		pc.mu.Unlock()
		return err
	}

	for i := range model.Media {
		if model.Media[i].ICE.UsernameFragment == "" || model.Media[i].ICE.Password == "" {
			pc.mu.Unlock()
			return newInvalidAccessErrorf("%w", ErrMissingICECredentials)
		}
	}

	if desc.Type == SDPTypeAnswer {
		for i := range model.Media {
			if model.Media[i].DTLS.Role != "client" && model.Media[i].DTLS.Role != "server" {
				pc.mu.Unlock()
				return newInvalidAccessErrorf("%w", ErrIllegalAnswerDTLSRole)
			}
		}
		if err := pc.validateAnswerMatchesOfferLocked(model); err != nil {
			pc.mu.Unlock()
			return err
		}
	}

	appIdx := -1
	for i := range model.Media {
		if model.Media[i].IsApplication() {
			appIdx = i
			break
		}
	}

	if appIdx >= 0 {
		appMedia := &model.Media[appIdx]

		if pc.sctpTransport == nil {
			if err := pc.ensureSCTPTransport(); err != nil {
				pc.mu.Unlock()
				return err
			}
		}
		if pc.sctpTransport.MID() == nil {
			// Bundled (a "slave" m-line per spec.md invariant 5) means this
			// section's MID is a non-primary member of the BUNDLE group,
			// i.e. some other m-line heads the group. A group this
			// orchestrator authors always lists its own section first,
			// so this only triggers against a remote description
			// whose BUNDLE group puts a different m-line first.
			bundleMIDs := model.BundleMIDs()
			bundled := len(bundleMIDs) > 0 && bundleMIDs[0] != appMedia.MID
			pc.sctpTransport.bindMID(appMedia.MID, bundled)
			pc.recordAllocatedMID(appMedia.MID)
		}
		pc.sctpMLineIdx = appIdx

		if desc.Type == SDPTypeOffer {
			if appMedia.ICE.Lite {
				pc.iceTransport.SetRole(ICERoleControlling)
			} else {
				pc.iceTransport.SetRole(ICERoleControlled)
			}
			if appMedia.DTLS.Role == "client" {
				pc.dtlsTransport.SetRole(DTLSRoleServer)
			}
		} else {
			switch appMedia.DTLS.Role {
			case "client":
				pc.dtlsTransport.SetRole(DTLSRoleServer)
			case "server":
				pc.dtlsTransport.SetRole(DTLSRoleClient)
			}
		}

		remoteICE := ICEParameters{UsernameFragment: appMedia.ICE.UsernameFragment, Password: appMedia.ICE.Password}
		pc.remoteICEParams = &remoteICE

		fingerprints := make([]DTLSFingerprint, 0, len(appMedia.DTLS.Fingerprints))
		for _, fp := range appMedia.DTLS.Fingerprints {
			fingerprints = append(fingerprints, DTLSFingerprint{Algorithm: fp.Algorithm, Value: fp.Value})
		}
		pc.remoteDTLSParams = &DTLSParameters{Role: dtlsRoleFromString(appMedia.DTLS.Role), Fingerprints: fingerprints}
		pc.remoteSCTPCaps = SCTPCapabilities{MaxMessageSize: 65536}
		if appMedia.SCTPPort != 0 {
			pc.remoteSCTPPort = appMedia.SCTPPort
		}
	}

	switch nextState {
	case SignalingStateHaveRemoteOffer, SignalingStateHaveRemotePranswer:
		pc.pendingRemoteDescription = &desc
	case SignalingStateStable:
		pc.currentRemoteDescription = &desc
		pc.pendingRemoteDescription = nil
		if pc.pendingLocalDescription != nil {
			pc.currentLocalDescription = pc.pendingLocalDescription
			pc.pendingLocalDescription = nil
		}
	}
	pc.signalingState = nextState

	ice := pc.iceTransport
	pc.mu.Unlock()

	if appIdx >= 0 && ice != nil {
		appMedia := model.Media[appIdx]
		for _, c := range appMedia.ICECandidates {
			ic := candidateFromSDPModel(c)
			_ = ice.AddRemoteCandidate(&ic)
		}
		if appMedia.ICECandidatesComplete {
			_ = ice.AddRemoteCandidate(nil)
		}
	}

	if f, ok := pc.onSignalingStateChange.load().(func(SignalingState)); ok {
		f(nextState)
	}

	pc.scheduleConnectDriver()
	return nil
}

// LocalDescription returns the pending local description if set, else the
// current one.
func (pc *PeerConnection) LocalDescription() *SessionDescription {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	if pc.pendingLocalDescription != nil {
		return pc.pendingLocalDescription
	}
	return pc.currentLocalDescription
}

// RemoteDescription returns the pending remote description if set, else
// the current one.
func (pc *PeerConnection) RemoteDescription() *SessionDescription {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	if pc.pendingRemoteDescription != nil {
		return pc.pendingRemoteDescription
	}
	return pc.currentRemoteDescription
}

// SignalingState returns the current signalling state.
func (pc *PeerConnection) SignalingState() SignalingState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.signalingState
}

// ICEGatheringState returns the aggregate ICE gathering state.
func (pc *PeerConnection) ICEGatheringState() ICEGatheringState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.iceGatheringState
}

// ICEConnectionState returns the aggregate ICE connection state.
func (pc *PeerConnection) ICEConnectionState() ICEConnectionState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.iceConnectionState
}

// ConnectionState returns the aggregate connection state.
func (pc *PeerConnection) ConnectionState() PeerConnectionState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.connectionState
}

// SCTP returns the peer connection's SCTP transport, or nil if none has
// been created yet.
func (pc *PeerConnection) SCTP() *SCTPTransport {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.sctpTransport
}

// OnSignalingStateChange registers a handler for signalingstatechange.
func (pc *PeerConnection) OnSignalingStateChange(f func(SignalingState)) {
	pc.onSignalingStateChange.store(f)
}

// OnICEGatheringStateChange registers a handler for icegatheringstatechange.
func (pc *PeerConnection) OnICEGatheringStateChange(f func(ICEGatheringState)) {
	pc.onICEGatheringStateChange.store(f)
}

// OnICEConnectionStateChange registers a handler for iceconnectionstatechange.
func (pc *PeerConnection) OnICEConnectionStateChange(f func(ICEConnectionState)) {
	pc.onICEConnectionStateChange.store(f)
}

// OnConnectionStateChange registers a handler for connectionstatechange.
func (pc *PeerConnection) OnConnectionStateChange(f func(PeerConnectionState)) {
	pc.onConnectionStateChange.store(f)
}

// OnDataChannel registers a handler invoked when the remote peer opens a
// data channel.
func (pc *PeerConnection) OnDataChannel(f func(*DataChannel)) {
	pc.onDataChannel.store(f)
}

// OnNegotiationNeeded registers a handler invoked when the executor's op
// queue drains with the negotiation-needed flag set, signalling that the
// application should call CreateOffer again.
func (pc *PeerConnection) OnNegotiationNeeded(f func()) {
	pc.onNegotiationNeeded.store(f)
}

// fireNegotiationNeeded is passed to newOperations as the callback driven
// by updateNegotiationNeededFlagOnEmptyChain once the op queue empties
// with the flag set.
func (pc *PeerConnection) fireNegotiationNeeded() {
	if f, ok := pc.onNegotiationNeeded.load().(func()); ok {
		f()
	}
}

// ensureSCTPTransport lazily creates the transport triple, per spec.md
// §3.6 and §4.4's createSctpTransport. Caller must hold pc.mu.
func (pc *PeerConnection) ensureSCTPTransport() error {
	if pc.sctpTransport != nil {
		return nil
	}
	if err := pc.ensureDTLSTransport(); err != nil {
		return err
	}

	pc.sctpTransport = newSCTPTransport(pc.dtlsTransport, pc.loggerFactory)
	pc.sctpMLineIdx = 0
	pc.sctpTransport.OnDataChannel(func(dc *DataChannel) {
		if f, ok := pc.onDataChannel.load().(func(*DataChannel)); ok {
			f(dc)
		}
	})
	return nil
}

// ensureDTLSTransport lazily builds the ICE gatherer, ICE transport, and
// DTLS transport, per spec.md §4.4's createDtlsTransport. Caller must
// hold pc.mu.
func (pc *PeerConnection) ensureDTLSTransport() error {
	if pc.dtlsTransport != nil {
		return nil
	}

	gatherer, err := newICEGatherer(pc.api.settingEngine, pc.config.ICEServers, pc.config.ICETransportPolicy)
	if err != nil {
		return err
	}
	pc.iceGatherer = gatherer

	ice := NewICETransport(gatherer)
	pc.iceTransport = ice

	dtls := newDTLSTransport(ice, pc.certificates)
	pc.dtlsTransport = dtls

	ice.OnStateChange(func(ICETransportState) { pc.recomputeStates() })
	gatherer.OnStateChange(func(ICEGathererState) { pc.recomputeStates() })
	dtls.OnStateChange(func(DTLSTransportState) { pc.recomputeStates() })

	// recomputeStates takes pc.mu itself, so it runs on the executor
	// rather than under the caller's lock.
	pc.ops.Enqueue(pc.recomputeStates)
	return nil
}

// recomputeStates re-derives the three aggregate states and emits events
// for whichever changed, per spec.md §4.5. It also schedules close() once
// every DTLS transport has closed while the connection is not yet
// closed. It acquires pc.mu itself, so the caller must not hold it.
func (pc *PeerConnection) recomputeStates() {
	pc.mu.Lock()

	var gathererStates []ICEGathererState
	var iceStates []ICETransportState
	var dtlsStates []DTLSTransportState
	if pc.iceGatherer != nil {
		gathererStates = append(gathererStates, pc.iceGatherer.State())
	}
	if pc.iceTransport != nil {
		iceStates = append(iceStates, pc.iceTransport.State())
	}
	if pc.dtlsTransport != nil {
		dtlsStates = append(dtlsStates, pc.dtlsTransport.State())
	}

	closed := pc.closed()

	newGathering := aggregateICEGatheringState(gathererStates)
	newICE := aggregateICEConnectionState(iceStates, closed)
	newConn := aggregatePeerConnectionState(iceStates, dtlsStates, closed)

	gatheringChanged := newGathering != pc.iceGatheringState
	iceChanged := newICE != pc.iceConnectionState
	connChanged := newConn != pc.connectionState

	pc.iceGatheringState = newGathering
	pc.iceConnectionState = newICE
	pc.connectionState = newConn

	shouldScheduleClose := !closed && allDTLSClosed(dtlsStates)

	pc.mu.Unlock()

	pc.gatherMu.Lock()
	pc.gatherCond.Broadcast()
	pc.gatherMu.Unlock()

	if gatheringChanged {
		if f, ok := pc.onICEGatheringStateChange.load().(func(ICEGatheringState)); ok {
			f(newGathering)
		}
	}
	if iceChanged {
		if f, ok := pc.onICEConnectionStateChange.load().(func(ICEConnectionState)); ok {
			f(newICE)
		}
	}
	if connChanged {
		if f, ok := pc.onConnectionStateChange.load().(func(PeerConnectionState)); ok {
			f(newConn)
		}
	}
	if shouldScheduleClose {
		pc.ops.Enqueue(func() { _ = pc.Close() })
	}
}

// scheduleConnectDriver enqueues the connect driver on the executor,
// matching spec.md §5's "fire-and-forget" suspension point.
func (pc *PeerConnection) scheduleConnectDriver() {
	pc.ops.Enqueue(func() { pc.runConnectDriver() })
}

// runConnectDriver implements spec.md §4.6. It is idempotent: every step
// checks the relevant transport's current state before acting.
func (pc *PeerConnection) runConnectDriver() {
	pc.mu.Lock()
	ice := pc.iceTransport
	dtls := pc.dtlsTransport
	sctp := pc.sctpTransport
	remoteICE := pc.remoteICEParams
	remoteDTLS := pc.remoteDTLSParams
	remoteCaps := pc.remoteSCTPCaps
	pc.mu.Unlock()

	if sctp == nil || ice == nil || dtls == nil {
		return
	}

	if ice.HasLocalCandidate() && remoteICE != nil {
		if err := ice.Start(context.Background(), *remoteICE); err != nil {
			pc.log.Warnf("ICE transport failed to start: %s", err)
			return
		}
	}

	if dtls.State() == DTLSTransportStateNew && remoteDTLS != nil {
		if err := dtls.Start(*remoteDTLS); err != nil {
			pc.log.Warnf("DTLS handshake failed: %s", err)
			return
		}
	}

	if dtls.State() == DTLSTransportStateConnected && sctp.State() == SCTPTransportStateConnecting {
		if err := sctp.Start(remoteCaps); err != nil {
			pc.log.Warnf("SCTP association failed to start: %s", err)
			return
		}
		pc.openPendingDataChannels()
	}
}

func (pc *PeerConnection) openPendingDataChannels() {
	pc.mu.Lock()
	sctp := pc.sctpTransport
	dtls := pc.dtlsTransport
	pending := pc.pendingDataChannels
	pc.pendingDataChannels = nil
	pc.mu.Unlock()

	client := dtls != nil && dtls.Role() == DTLSRoleClient
	for _, dc := range pending {
		if err := dc.openOverSCTP(sctp, client); err != nil {
			pc.log.Warnf("failed to open data channel %q: %s", dc.Label(), err)
		}
	}
}

// CreateDataChannel creates a data channel bound to the (lazily created)
// SCTP transport, per spec.md §4.8.
func (pc *PeerConnection) CreateDataChannel(params DataChannelParameters) (*DataChannel, error) {
	pc.mu.Lock()

	if pc.closed() {
		pc.mu.Unlock()
		return nil, newInvalidStateErrorf("%w", ErrConnectionClosed)
	}
	if params.MaxPacketLifeTime != nil && params.MaxRetransmits != nil {
		pc.mu.Unlock()
		return nil, newInvalidAccessErrorf("%w", ErrDataChannelConflictingLimits)
	}
	if !params.Negotiated {
		params.Ordered = params.Ordered || params.MaxPacketLifeTime == nil && params.MaxRetransmits == nil
	}

	if err := pc.ensureSCTPTransport(); err != nil {
		pc.mu.Unlock()
		return nil, err
	}

	dc, err := newDataChannel(params, pc.loggerFactory.NewLogger("datachannel"))
	if err != nil {
		pc.mu.Unlock()
		return nil, err
	}

	ready := pc.sctpTransport.State() == SCTPTransportStateConnected
	sctp := pc.sctpTransport
	dtls := pc.dtlsTransport
	if !ready {
		pc.pendingDataChannels = append(pc.pendingDataChannels, dc)
	}
	needsNegotiation := pc.signalingState == SignalingStateStable
	pc.mu.Unlock()

	if needsNegotiation {
		pc.negotiationFlag.set(true)
		pc.ops.Enqueue(func() {})
	}

	if ready {
		client := dtls != nil && dtls.Role() == DTLSRoleClient
		if err := dc.openOverSCTP(sctp, client); err != nil {
			return nil, err
		}
	}

	return dc, nil
}

// AddICECandidate routes a trickled candidate to the SCTP transport's ICE
// transport and mirrors it into the stored remote description, per
// spec.md §4.3. A candidate targeting a bundled-as-slave m-line is only
// mirrored into the stored description, never forwarded to the shared
// ICE transport, since that transport is owned by the bundle's primary
// m-line.
func (pc *PeerConnection) AddICECandidate(init ICECandidateInit) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.closed() {
		return newInvalidStateErrorf("%w", ErrConnectionClosed)
	}

	if init.Candidate == "" {
		if pc.iceTransport == nil {
			return nil
		}
		if err := pc.iceTransport.AddRemoteCandidate(nil); err != nil {
			return err
		}
		pc.markRemoteCandidatesComplete()
		return nil
	}

	if init.SDPMid == nil && init.SDPMLineIndex == nil {
		return newInvalidAccessErrorf("%w", ErrICECandidateMissingTarget)
	}

	candidate, err := dcsdp.ParseCandidateAttribute(init.Candidate)
	if err != nil {
		return newInvalidAccessErrorf("%w", err)
	}

	targetsSCTP := false
	if pc.sctpTransport != nil && !pc.sctpTransport.Bundled() {
		if mid := pc.sctpTransport.MID(); mid != nil && init.SDPMid != nil && *init.SDPMid == *mid {
			targetsSCTP = true
		}
		if init.SDPMLineIndex != nil && int(*init.SDPMLineIndex) == pc.sctpMLineIdx {
			targetsSCTP = true
		}
	}

	if targetsSCTP && pc.iceTransport != nil {
		ic := candidateFromSDPModel(candidate)
		if err := pc.iceTransport.AddRemoteCandidate(&ic); err != nil {
			return err
		}
	}

	pc.mirrorRemoteCandidate(candidate, init)
	return nil
}

func (pc *PeerConnection) markRemoteCandidatesComplete() {
	remote := pc.activeRemoteLocked()
	if remote == nil || remote.parsed == nil {
		return
	}
	for i := range remote.parsed.Media {
		remote.parsed.Media[i].ICECandidatesComplete = true
	}
}

func (pc *PeerConnection) mirrorRemoteCandidate(candidate dcsdp.Candidate, init ICECandidateInit) {
	remote := pc.activeRemoteLocked()
	if remote == nil || remote.parsed == nil {
		return
	}
	for i := range remote.parsed.Media {
		matches := false
		if init.SDPMLineIndex != nil && int(*init.SDPMLineIndex) == i {
			matches = true
		}
		if init.SDPMid != nil && *init.SDPMid == remote.parsed.Media[i].MID {
			matches = true
		}
		if matches {
			remote.parsed.Media[i].ICECandidates = append(remote.parsed.Media[i].ICECandidates, candidate)
		}
	}
}

func (pc *PeerConnection) activeRemoteLocked() *SessionDescription {
	if pc.pendingRemoteDescription != nil {
		return pc.pendingRemoteDescription
	}
	return pc.currentRemoteDescription
}

func iceCandidateTypeFromString(s string) ICECandidateType {
	switch s {
	case "host":
		return ICECandidateTypeHost
	case "srflx":
		return ICECandidateTypeSrflx
	case "prflx":
		return ICECandidateTypePrflx
	case "relay":
		return ICECandidateTypeRelay
	default:
		return 0
	}
}

// Close tears down every transport and transitions every public state to
// closed, per spec.md §4.7. Subsequent calls are no-ops.
func (pc *PeerConnection) Close() error {
	if !pc.isClosed.compareAndSwap(false, true) {
		<-pc.closedCh
		return nil
	}

	pc.mu.Lock()
	pc.signalingState = SignalingStateClosed
	sctp := pc.sctpTransport
	dtls := pc.dtlsTransport
	ice := pc.iceTransport
	pc.mu.Unlock()

	if f, ok := pc.onSignalingStateChange.load().(func(SignalingState)); ok {
		f(SignalingStateClosed)
	}

	if sctp != nil {
		_ = sctp.Stop()
	}
	if dtls != nil {
		_ = dtls.Stop()
	}
	if ice != nil {
		_ = ice.Stop()
	}

	pc.recomputeStates()

	pc.onSignalingStateChange.store(func(SignalingState) {})
	pc.onICEGatheringStateChange.store(func(ICEGatheringState) {})
	pc.onICEConnectionStateChange.store(func(ICEConnectionState) {})
	pc.onConnectionStateChange.store(func(PeerConnectionState) {})
	pc.onDataChannel.store(func(*DataChannel) {})
	pc.onNegotiationNeeded.store(func() {})

	pc.closedOnce.Do(func() { close(pc.closedCh) })
	return nil
}
