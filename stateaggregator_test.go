package webrtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateICEGatheringState(t *testing.T) {
	testCases := []struct {
		states   []ICEGathererState
		expected ICEGatheringState
	}{
		{nil, ICEGatheringStateNew},
		{[]ICEGathererState{ICEGathererStateNew}, ICEGatheringStateNew},
		{[]ICEGathererState{ICEGathererStateGathering}, ICEGatheringStateGathering},
		{[]ICEGathererState{ICEGathererStateComplete}, ICEGatheringStateComplete},
	}

	for i, testCase := range testCases {
		assert.Equal(t, testCase.expected, aggregateICEGatheringState(testCase.states), "testCase: %d %v", i, testCase)
	}
}

func TestAggregateICEConnectionState(t *testing.T) {
	testCases := []struct {
		states   []ICETransportState
		closed   bool
		expected ICEConnectionState
	}{
		{nil, true, ICEConnectionStateClosed},
		{nil, false, ICEConnectionStateNew},
		{[]ICETransportState{ICETransportStateChecking}, false, ICEConnectionStateChecking},
		{[]ICETransportState{ICETransportStateCompleted}, false, ICEConnectionStateCompleted},
		{[]ICETransportState{ICETransportStateFailed}, false, ICEConnectionStateFailed},
		{[]ICETransportState{ICETransportStateCompleted, ICETransportStateFailed}, false, ICEConnectionStateFailed},
	}

	for i, testCase := range testCases {
		got := aggregateICEConnectionState(testCase.states, testCase.closed)
		assert.Equal(t, testCase.expected, got, "testCase: %d %v", i, testCase)
	}
}

func TestAggregatePeerConnectionState(t *testing.T) {
	testCases := []struct {
		ice      []ICETransportState
		dtls     []DTLSTransportState
		closed   bool
		expected PeerConnectionState
	}{
		{nil, nil, true, PeerConnectionStateClosed},
		{nil, nil, false, PeerConnectionStateNew},
		{[]ICETransportState{ICETransportStateFailed}, nil, false, PeerConnectionStateFailed},
		{nil, []DTLSTransportState{DTLSTransportStateFailed}, false, PeerConnectionStateFailed},
		{[]ICETransportState{ICETransportStateChecking}, []DTLSTransportState{DTLSTransportStateNew}, false, PeerConnectionStateConnecting},
		{
			[]ICETransportState{ICETransportStateCompleted},
			[]DTLSTransportState{DTLSTransportStateConnecting},
			false,
			PeerConnectionStateConnecting,
		},
		{
			[]ICETransportState{ICETransportStateCompleted},
			[]DTLSTransportState{DTLSTransportStateNew},
			false,
			PeerConnectionStateConnecting,
		},
		{
			[]ICETransportState{ICETransportStateCompleted},
			[]DTLSTransportState{DTLSTransportStateConnected},
			false,
			PeerConnectionStateConnected,
		},
	}

	for i, testCase := range testCases {
		got := aggregatePeerConnectionState(testCase.ice, testCase.dtls, testCase.closed)
		assert.Equal(t, testCase.expected, got, "testCase: %d %v", i, testCase)
	}
}

func TestAllDTLSClosed(t *testing.T) {
	assert.False(t, allDTLSClosed(nil))
	assert.False(t, allDTLSClosed([]DTLSTransportState{DTLSTransportStateNew}))
	assert.False(t, allDTLSClosed([]DTLSTransportState{DTLSTransportStateClosed, DTLSTransportStateNew}))
	assert.True(t, allDTLSClosed([]DTLSTransportState{DTLSTransportStateClosed}))
}
