package webrtc

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/pion/dtls/v3"
)

// DTLSFingerprint specifies the hash function algorithm and certificate
// fingerprint as described in RFC 8122.
type DTLSFingerprint struct {
	Algorithm string
	Value     string
}

// Certificate represents a X.509 certificate used to authenticate WebRTC
// communications, per spec.md §3.6 ("certificates created at construction,
// destroyed with the connection").
type Certificate struct {
	statsID    string
	privateKey crypto.PrivateKey
	x509Cert   *x509.Certificate
}

// Expires returns the timestamp after which this certificate is no longer
// valid.
func (c *Certificate) Expires() time.Time {
	if c.x509Cert == nil {
		return time.Time{}
	}
	return c.x509Cert.NotAfter
}

// GetFingerprints returns the certificate fingerprint used for DTLS
// negotiation, always computed with SHA-256 (spec.md §6.1's
// `a=fingerprint:sha-256`).
func (c *Certificate) GetFingerprints() ([]DTLSFingerprint, error) {
	value, err := dtls.Fingerprint(c.x509Cert, dtls.HashAlgorithmSHA256)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	return []DTLSFingerprint{{
		Algorithm: dtls.HashAlgorithmSHA256.String(),
		Value:     value,
	}}, nil
}

// generateCertificate creates a fresh self-signed ECDSA certificate for a
// single PeerConnection's certificate bundle (spec.md §3.1).
func generateCertificate() (*Certificate, error) {
	secretKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	maxBigInt := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 130), big.NewInt(1))
	serialNumber, err := rand.Int(rand.Reader, maxBigInt)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	origin := make([]byte, 16)
	if _, err := rand.Read(origin); err != nil {
		return nil, &UnknownError{Err: err}
	}

	template := &x509.Certificate{
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		SerialNumber:          serialNumber,
		Version:               2,
		Subject:               pkix.Name{CommonName: hex.EncodeToString(origin)},
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, secretKey.Public(), secretKey)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, &UnknownError{Err: err}
	}

	return &Certificate{
		statsID:    uuid.NewString(),
		privateKey: secretKey,
		x509Cert:   cert,
	}, nil
}
