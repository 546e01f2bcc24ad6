package sdp

import "fmt"

func errUnknownSetup(value string) error {
	return fmt.Errorf("sdp: unrecognized a=setup value %q", value)
}

func errMalformedCandidate(value string) error {
	return fmt.Errorf("sdp: malformed candidate attribute %q", value)
}
