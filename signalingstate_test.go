package webrtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalingState_String(t *testing.T) {
	testCases := []struct {
		state          SignalingState
		expectedString string
	}{
		{SignalingState(0), unknownStr},
		{SignalingStateStable, "stable"},
		{SignalingStateHaveLocalOffer, "have-local-offer"},
		{SignalingStateHaveRemoteOffer, "have-remote-offer"},
		{SignalingStateHaveLocalPranswer, "have-local-pranswer"},
		{SignalingStateHaveRemotePranswer, "have-remote-pranswer"},
		{SignalingStateClosed, "closed"},
	}

	for i, testCase := range testCases {
		assert.Equal(t, testCase.expectedString, testCase.state.String(), "testCase: %d %v", i, testCase)
	}
}

func TestNextSignalingState_Transitions(t *testing.T) {
	testCases := []struct {
		cur      SignalingState
		op       signalingOp
		sdpType  SDPType
		expected SignalingState
		wantErr  bool
	}{
		{SignalingStateStable, signalingOpSetLocal, SDPTypeOffer, SignalingStateHaveLocalOffer, false},
		{SignalingStateStable, signalingOpSetRemote, SDPTypeOffer, SignalingStateHaveRemoteOffer, false},
		{SignalingStateStable, signalingOpSetLocal, SDPTypeAnswer, SignalingStateStable, true},
		{SignalingStateHaveLocalOffer, signalingOpSetRemote, SDPTypeAnswer, SignalingStateStable, false},
		{SignalingStateHaveLocalOffer, signalingOpSetRemote, SDPTypePranswer, SignalingStateHaveRemotePranswer, false},
		{SignalingStateHaveLocalOffer, signalingOpSetLocal, SDPTypeOffer, SignalingStateHaveLocalOffer, false},
		{SignalingStateHaveRemoteOffer, signalingOpSetLocal, SDPTypeAnswer, SignalingStateStable, false},
		{SignalingStateHaveRemoteOffer, signalingOpSetLocal, SDPTypePranswer, SignalingStateHaveLocalPranswer, false},
		{SignalingStateHaveLocalPranswer, signalingOpSetLocal, SDPTypeAnswer, SignalingStateStable, false},
		{SignalingStateHaveRemotePranswer, signalingOpSetRemote, SDPTypeAnswer, SignalingStateStable, false},
		{SignalingStateClosed, signalingOpSetLocal, SDPTypeOffer, SignalingStateClosed, true},
	}

	for i, testCase := range testCases {
		got, err := nextSignalingState(testCase.cur, testCase.op, testCase.sdpType)
		if testCase.wantErr {
			assert.Error(t, err, "testCase: %d %v", i, testCase)
			continue
		}
		assert.NoError(t, err, "testCase: %d %v", i, testCase)
		assert.Equal(t, testCase.expected, got, "testCase: %d %v", i, testCase)
	}
}

func TestDefaultImplicitSDPType(t *testing.T) {
	testCases := []struct {
		cur      SignalingState
		expected SDPType
		wantErr  bool
	}{
		{SignalingStateStable, SDPTypeOffer, false},
		{SignalingStateHaveLocalOffer, SDPTypeOffer, false},
		{SignalingStateHaveRemoteOffer, SDPTypeAnswer, false},
		{SignalingStateHaveLocalPranswer, SDPTypeAnswer, false},
		{SignalingStateHaveRemotePranswer, 0, true},
		{SignalingStateClosed, 0, true},
	}

	for i, testCase := range testCases {
		got, err := defaultImplicitSDPType(testCase.cur)
		if testCase.wantErr {
			assert.Error(t, err, "testCase: %d %v", i, testCase)
			continue
		}
		assert.NoError(t, err, "testCase: %d %v", i, testCase)
		assert.Equal(t, testCase.expected, got, "testCase: %d %v", i, testCase)
	}
}
