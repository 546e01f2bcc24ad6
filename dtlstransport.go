package webrtc

import (
	"crypto/tls"
	"crypto/x509"
	"strings"
	"sync"

	"github.com/pion/dtls/v3"
)

// DTLSTransport provides access to information about the DTLS transport
// over which SCTP packets are sent and received, per spec.md §4.4. The
// handshake itself is performed by the wrapped dtls.Conn, a black-box
// collaborator (spec.md §1).
type DTLSTransport struct {
	mu sync.Mutex

	iceTransport *ICETransport
	certificates []Certificate

	remoteParameters DTLSParameters
	configuredRole   DTLSRole
	state            DTLSTransportState

	conn *dtls.Conn

	onStateChange atomicHandler
}

func newDTLSTransport(ice *ICETransport, certificates []Certificate) *DTLSTransport {
	return &DTLSTransport{
		iceTransport: ice,
		certificates: certificates,
		state:        DTLSTransportStateNew,
	}
}

// ICETransport returns the ICE transport this DTLS transport runs over.
func (t *DTLSTransport) ICETransport() *ICETransport {
	return t.iceTransport
}

// State returns the current DTLS transport state.
func (t *DTLSTransport) State() DTLSTransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnStateChange registers a handler invoked whenever the transport's state
// changes.
func (t *DTLSTransport) OnStateChange(f func(DTLSTransportState)) {
	t.onStateChange.store(f)
}

func (t *DTLSTransport) setState(s DTLSTransportState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()
	if f, ok := t.onStateChange.load().(func(DTLSTransportState)); ok {
		f(s)
	}
}

// GetLocalParameters returns this connection's certificate fingerprints.
// The role is always reported as auto: the resolved role is carried
// separately via SetRole, per spec.md §4.2 step 6.
func (t *DTLSTransport) GetLocalParameters() (DTLSParameters, error) {
	var fingerprints []DTLSFingerprint
	for _, c := range t.certificates {
		prints, err := c.GetFingerprints()
		if err != nil {
			return DTLSParameters{}, err
		}
		fingerprints = append(fingerprints, prints...)
	}
	return DTLSParameters{Role: DTLSRoleAuto, Fingerprints: fingerprints}, nil
}

// SetRole assigns the one-time-per-transport DTLS role computed by the
// offer/answer engine (spec.md §4.2 step 6).
func (t *DTLSTransport) SetRole(role DTLSRole) {
	t.mu.Lock()
	t.configuredRole = role
	t.mu.Unlock()
}

// Role resolves the locally-acting DTLS role: an explicit configured role
// takes precedence, falling back unconditionally to client per spec.md
// §4.2 createAnswer step 2 ("if auto, emit client").
func (t *DTLSTransport) Role() DTLSRole {
	t.mu.Lock()
	role := t.configuredRole
	t.mu.Unlock()

	if role == DTLSRoleServer {
		return role
	}
	return DTLSRoleClient
}

// Start begins the DTLS handshake against the given remote fingerprints,
// per spec.md §4.6 step 2. It is a no-op unless the transport is in the
// "new" state, so the connect driver may call it repeatedly.
func (t *DTLSTransport) Start(remoteParameters DTLSParameters) error {
	t.mu.Lock()
	if t.state != DTLSTransportStateNew {
		t.mu.Unlock()
		return nil
	}
	t.remoteParameters = remoteParameters
	ice := t.iceTransport
	certs := t.certificates
	t.mu.Unlock()
	role := t.Role()

	if ice == nil || ice.conn == nil {
		return newInvalidStateErrorf("ICE transport has not connected")
	}

	t.setState(DTLSTransportStateConnecting)

	tlsCerts := make([]tls.Certificate, 0, len(certs))
	for _, c := range certs {
		tlsCerts = append(tlsCerts, tls.Certificate{
			Certificate: [][]byte{c.x509Cert.Raw},
			PrivateKey:  c.privateKey,
		})
	}

	config := &dtls.Config{
		Certificates:         tlsCerts,
		InsecureSkipVerify:   true,
		VerifyPeerCertificate: t.verifyRemoteFingerprint,
	}

	var conn *dtls.Conn
	var err error
	if role == DTLSRoleClient {
		conn, err = dtls.Client(ice.conn, config)
	} else {
		conn, err = dtls.Server(ice.conn, config)
	}
	if err != nil {
		t.setState(DTLSTransportStateFailed)
		return &UnknownError{Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.setState(DTLSTransportStateConnected)
	return nil
}

// verifyRemoteFingerprint checks the peer's certificate against the
// fingerprints negotiated in SDP (spec.md §6.1's a=fingerprint).
func (t *DTLSTransport) verifyRemoteFingerprint(rawCerts [][]byte, _ [][]byte) error {
	if len(rawCerts) == 0 || len(t.remoteParameters.Fingerprints) == 0 {
		return newInvalidAccessErrorf("missing certificate or fingerprint")
	}

	remoteCert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return err
	}

	for _, fp := range t.remoteParameters.Fingerprints {
		if !strings.EqualFold(fp.Algorithm, dtls.HashAlgorithmSHA256.String()) {
			continue
		}

		remoteValue, err := dtls.Fingerprint(remoteCert, dtls.HashAlgorithmSHA256)
		if err != nil {
			continue
		}

		if strings.EqualFold(remoteValue, fp.Value) {
			return nil
		}
	}

	return newInvalidAccessErrorf("no matching fingerprint")
}

// Stop closes the DTLS connection.
func (t *DTLSTransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	t.setState(DTLSTransportStateClosed)

	if conn == nil {
		return nil
	}
	return conn.Close()
}
