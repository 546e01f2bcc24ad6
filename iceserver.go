package webrtc

import (
	"github.com/pion/ice/v4"
)

// ICEServer describes a single STUN or TURN server that may be used by
// the ICEGatherer to establish a connection with a peer.
type ICEServer struct {
	URLs           []string
	Username       string
	Credential     interface{}
	CredentialType ICECredentialType
}

func (s ICEServer) validate() error {
	_, err := s.urls()
	return err
}

func (s ICEServer) urls() ([]*ice.URL, error) {
	urls := []*ice.URL{}

	for i := range s.URLs {
		url, err := ice.ParseURL(s.URLs[i])
		if err != nil {
			return nil, newInvalidAccessErrorf("%w", err)
		}

		if url.Scheme == ice.SchemeTypeTURN || url.Scheme == ice.SchemeTypeTURNS {
			if s.Username == "" || s.Credential == nil {
				return nil, newInvalidAccessErrorf("%w", ErrNoTurnCred)
			}
			url.Username = s.Username

			switch s.CredentialType {
			case ICECredentialTypePassword:
				password, ok := s.Credential.(string)
				if !ok {
					return nil, newInvalidAccessErrorf("%w", ErrTurnCred)
				}
				url.Password = password
			case ICECredentialTypeOauth:
				if _, ok := s.Credential.(OAuthCredential); !ok {
					return nil, newInvalidAccessErrorf("%w", ErrTurnCred)
				}
			default:
				return nil, newInvalidAccessErrorf("%w", ErrTurnCred)
			}
		}

		urls = append(urls, url)
	}

	return urls, nil
}
