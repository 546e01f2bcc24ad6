package webrtc

import (
	"sync"

	"github.com/pion/ice/v4"
	"github.com/pion/logging"
	"github.com/pion/transport/v4/vnet"
)

// ICEGatherer gathers local host, server reflexive, and relay candidates
// and exposes the ICE credentials exchanged in signalling, per spec.md
// §4.4. It owns the underlying ice.Agent — the actual STUN/TURN
// connectivity-check machinery this orchestrator treats as a black box
// (spec.md §1).
type ICEGatherer struct {
	mu    sync.Mutex
	state ICEGathererState

	agent *ice.Agent

	validatedServers []*ice.URL
	portMin          uint16
	portMax          uint16
	networkTypes     []string
	candidateTypes   []ice.CandidateType
	net              *vnet.Net

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger

	onStateChange atomicHandler
	onLocalCand   atomicHandler
}

func newICEGatherer(settings *SettingEngine, servers []ICEServer, policy ICETransportPolicy) (*ICEGatherer, error) {
	var validated []*ice.URL
	for _, s := range servers {
		urls, err := s.urls()
		if err != nil {
			return nil, err
		}
		validated = append(validated, urls...)
	}

	var candidateTypes []ice.CandidateType
	if policy == ICETransportPolicyRelay {
		candidateTypes = []ice.CandidateType{ice.CandidateTypeRelay}
	}

	loggerFactory := settings.getLoggerFactory()

	return &ICEGatherer{
		state:            ICEGathererStateNew,
		validatedServers: validated,
		portMin:          settings.ephemeralUDP.PortMin,
		portMax:          settings.ephemeralUDP.PortMax,
		networkTypes:     settings.candidates.ICENetworkTypes,
		candidateTypes:   candidateTypes,
		net:              settings.net,
		loggerFactory:    loggerFactory,
		log:              loggerFactory.NewLogger("ice-gatherer"),
	}, nil
}

// State returns the current state of the gatherer.
func (g *ICEGatherer) State() ICEGathererState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnStateChange registers a handler invoked whenever the gatherer's state
// changes.
func (g *ICEGatherer) OnStateChange(f func(ICEGathererState)) {
	g.onStateChange.store(f)
}

func (g *ICEGatherer) setState(s ICEGathererState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	if f, ok := g.onStateChange.load().(func(ICEGathererState)); ok {
		f(s)
	}
}

// Gather starts the gathering process. It is idempotent: calling it after
// gathering has already started or completed is a no-op.
func (g *ICEGatherer) Gather() error {
	g.mu.Lock()
	if g.agent != nil {
		g.mu.Unlock()
		return nil
	}

	agent, err := ice.NewAgent(&ice.AgentConfig{
		Urls:           g.validatedServers,
		PortMin:        g.portMin,
		PortMax:        g.portMax,
		CandidateTypes: g.candidateTypes,
		Net:            g.net,
		LoggerFactory:  g.loggerFactory,
	})
	if err != nil {
		g.mu.Unlock()
		return &UnknownError{Err: err}
	}
	g.agent = agent
	g.state = ICEGathererStateGathering
	g.mu.Unlock()

	g.setState(ICEGathererStateGathering)

	if err := agent.OnCandidate(func(c ice.Candidate) {
		if c == nil {
			g.setState(ICEGathererStateComplete)
			return
		}
		if f, ok := g.onLocalCand.load().(func(ice.Candidate)); ok {
			f(c)
		}
	}); err != nil {
		return &UnknownError{Err: err}
	}

	return agent.GatherCandidates()
}

// OnLocalCandidate registers a handler invoked for every candidate
// discovered during gathering.
func (g *ICEGatherer) OnLocalCandidate(f func(ice.Candidate)) {
	g.onLocalCand.store(f)
}

// GetLocalParameters returns the ICE ufrag/password pair negotiated
// parties rely on to authenticate STUN checks.
func (g *ICEGatherer) GetLocalParameters() (ICEParameters, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.agent == nil {
		return ICEParameters{}, newInvalidStateErrorf("gatherer has not started")
	}
	frag, pwd := g.agent.GetLocalUserCredentials()
	return ICEParameters{UsernameFragment: frag, Password: pwd}, nil
}

// GetLocalCandidates returns the candidates gathered so far.
func (g *ICEGatherer) GetLocalCandidates() ([]ICECandidate, error) {
	g.mu.Lock()
	agent := g.agent
	g.mu.Unlock()
	if agent == nil {
		return nil, nil
	}

	raw, err := agent.GetLocalCandidates()
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	out := make([]ICECandidate, 0, len(raw))
	for _, c := range raw {
		converted, err := newICECandidateFromICE(c)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// Close stops the gatherer and releases its agent.
func (g *ICEGatherer) Close() error {
	g.mu.Lock()
	agent := g.agent
	g.agent = nil
	g.state = ICEGathererStateClosed
	g.mu.Unlock()

	if agent == nil {
		return nil
	}
	return agent.Close()
}

// ICEParameters carries the ICE credentials of a transport, per spec.md
// §3.4.
type ICEParameters struct {
	UsernameFragment string
	Password         string
}
