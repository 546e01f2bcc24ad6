package webrtc

import (
	"context"
	"sync"

	"github.com/pion/ice/v4"
)

// ICETransport allows access to information about the ICE transport over
// which data is sent and received, and drives the connectivity checks
// (spec.md §4.4, §4.6). Like ICEGatherer, the actual checks are performed
// by the wrapped ice.Agent, a black-box collaborator.
type ICETransport struct {
	mu    sync.Mutex
	state ICETransportState
	role  ICERole

	gatherer *ICEGatherer
	conn     *ice.Conn

	onStateChange atomicHandler
}

// NewICETransport creates an ICETransport bound to gatherer.
func NewICETransport(gatherer *ICEGatherer) *ICETransport {
	return &ICETransport{gatherer: gatherer, state: ICETransportStateNew}
}

// State returns the transport's current state.
func (t *ICETransport) State() ICETransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Role returns the transport's current ICE role.
func (t *ICETransport) Role() ICERole {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.role
}

// SetRole sets the transport's ICE role, which must be assigned before
// Start per spec.md §4.2's role-assignment rules.
func (t *ICETransport) SetRole(role ICERole) {
	t.mu.Lock()
	t.role = role
	t.mu.Unlock()
}

// OnStateChange registers a handler invoked whenever the transport's
// state changes.
func (t *ICETransport) OnStateChange(f func(ICETransportState)) {
	t.onStateChange.store(f)
}

func (t *ICETransport) setState(s ICETransportState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()
	if f, ok := t.onStateChange.load().(func(ICETransportState)); ok {
		f(s)
	}
}

// HasLocalCandidate reports whether gathering has produced at least one
// local candidate, the precondition the connect driver (spec.md §4.6)
// checks before starting the transport.
func (t *ICETransport) HasLocalCandidate() bool {
	candidates, err := t.gatherer.GetLocalCandidates()
	return err == nil && len(candidates) > 0
}

// Start begins connectivity checks against the given remote parameters
// using the transport's assigned role. It is idempotent: once a
// connection attempt is underway, subsequent calls are no-ops (spec.md
// §4.6's "steps are idempotent").
func (t *ICETransport) Start(ctx context.Context, remote ICEParameters) error {
	t.mu.Lock()
	if t.conn != nil || t.state == ICETransportStateClosed {
		t.mu.Unlock()
		return nil
	}
	agent := t.gatherer.agent
	role := t.role
	t.mu.Unlock()

	if agent == nil {
		return newInvalidStateErrorf("ICE gatherer has not started")
	}

	if err := agent.OnConnectionStateChange(func(cs ice.ConnectionState) {
		t.setState(newICETransportStateFromICE(cs))
	}); err != nil {
		return &UnknownError{Err: err}
	}

	t.setState(ICETransportStateChecking)

	var conn *ice.Conn
	var err error
	switch role {
	case ICERoleControlling:
		conn, err = agent.Dial(ctx, remote.UsernameFragment, remote.Password)
	default:
		conn, err = agent.Accept(ctx, remote.UsernameFragment, remote.Password)
	}
	if err != nil {
		t.setState(ICETransportStateFailed)
		return &UnknownError{Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	return nil
}

// AddRemoteCandidate forwards a trickled remote candidate to the agent, or
// signals end-of-candidates when c is nil (spec.md §4.3).
func (t *ICETransport) AddRemoteCandidate(c *ICECandidate) error {
	t.mu.Lock()
	agent := t.gatherer.agent
	t.mu.Unlock()
	if agent == nil {
		return newInvalidStateErrorf("ICE gatherer has not started")
	}

	if c == nil {
		return agent.AddRemoteCandidate(nil)
	}

	iceCandidate, err := toICECandidate(*c)
	if err != nil {
		return err
	}
	return agent.AddRemoteCandidate(iceCandidate)
}

// Stop irreversibly stops the ICETransport (spec.md §4.7).
func (t *ICETransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	t.setState(ICETransportStateClosed)

	if conn != nil {
		if err := conn.Close(); err != nil {
			return err
		}
	}
	return t.gatherer.Close()
}

func newICETransportStateFromICE(cs ice.ConnectionState) ICETransportState {
	switch cs {
	case ice.ConnectionStateNew:
		return ICETransportStateNew
	case ice.ConnectionStateChecking:
		return ICETransportStateChecking
	case ice.ConnectionStateConnected:
		return ICETransportStateConnected
	case ice.ConnectionStateCompleted:
		return ICETransportStateCompleted
	case ice.ConnectionStateFailed:
		return ICETransportStateFailed
	case ice.ConnectionStateDisconnected:
		return ICETransportStateDisconnected
	case ice.ConnectionStateClosed:
		return ICETransportStateClosed
	default:
		return ICETransportStateNew
	}
}

// toICECandidate converts our ICECandidate back into an ice.Candidate for
// submission to the agent. Grounded on the teacher's ICECandidate.toICE.
func toICECandidate(c ICECandidate) (ice.Candidate, error) {
	config := ice.CandidateHostConfig{
		Network:   c.Protocol,
		Address:   c.Address,
		Port:      int(c.Port),
		Component: c.Component,
		Foundation: c.Foundation,
		Priority:  c.Priority,
	}

	switch c.Typ {
	case ICECandidateTypeHost:
		return ice.NewCandidateHost(&config)
	case ICECandidateTypeSrflx:
		return ice.NewCandidateServerReflexive(&ice.CandidateServerReflexiveConfig{
			Network:    c.Protocol,
			Address:    c.Address,
			Port:       int(c.Port),
			Component:  c.Component,
			Foundation: c.Foundation,
			Priority:   c.Priority,
			RelAddr:    c.RelatedAddress,
			RelPort:    int(c.RelatedPort),
		})
	case ICECandidateTypePrflx:
		return ice.NewCandidatePeerReflexive(&ice.CandidatePeerReflexiveConfig{
			Network:    c.Protocol,
			Address:    c.Address,
			Port:       int(c.Port),
			Component:  c.Component,
			Foundation: c.Foundation,
			Priority:   c.Priority,
			RelAddr:    c.RelatedAddress,
			RelPort:    int(c.RelatedPort),
		})
	case ICECandidateTypeRelay:
		return ice.NewCandidateRelay(&ice.CandidateRelayConfig{
			Network:    c.Protocol,
			Address:    c.Address,
			Port:       int(c.Port),
			Component:  c.Component,
			Foundation: c.Foundation,
			Priority:   c.Priority,
			RelAddr:    c.RelatedAddress,
			RelPort:    int(c.RelatedPort),
		})
	default:
		return nil, newInvalidAccessErrorf("%w: %s", ErrUnknownType, c.Typ)
	}
}
