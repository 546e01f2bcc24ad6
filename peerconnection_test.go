//go:build !js
// +build !js

package webrtc

import (
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v4/vnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createVNetPair(t *testing.T) (offerPC, answerPC *PeerConnection, wan *vnet.Router) {
	t.Helper()

	wan, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          "1.2.3.0/24",
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	require.NoError(t, err)

	offerNet, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{"1.2.3.4"}})
	require.NoError(t, err)
	require.NoError(t, wan.AddNet(offerNet))

	answerNet, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{"1.2.3.5"}})
	require.NoError(t, err)
	require.NoError(t, wan.AddNet(answerNet))

	require.NoError(t, wan.Start())

	offerSettings := SettingEngine{}
	offerSettings.SetNet(offerNet)
	answerSettings := SettingEngine{}
	answerSettings.SetNet(answerNet)

	offerPC, err = NewAPI(WithSettingEngine(offerSettings)).NewPeerConnection(Configuration{})
	require.NoError(t, err)
	answerPC, err = NewAPI(WithSettingEngine(answerSettings)).NewPeerConnection(Configuration{})
	require.NoError(t, err)

	return offerPC, answerPC, wan
}

func negotiate(t *testing.T, offerPC, answerPC *PeerConnection) {
	t.Helper()

	offer, err := offerPC.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, offerPC.SetLocalDescription(&offer))

	require.NoError(t, answerPC.SetRemoteDescription(*offerPC.LocalDescription()))
	answer, err := answerPC.CreateAnswer(nil)
	require.NoError(t, err)
	require.NoError(t, answerPC.SetLocalDescription(&answer))

	require.NoError(t, offerPC.SetRemoteDescription(*answerPC.LocalDescription()))
}

func waitConnected(t *testing.T, pc *PeerConnection) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		if pc.ConnectionState() == PeerConnectionStateConnected {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for connected state, last state %s", pc.ConnectionState())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestPeerConnection_DataChannel_EndToEnd(t *testing.T) {
	offerPC, answerPC, wan := createVNetPair(t)
	defer func() { _ = wan.Stop() }()
	defer func() { _ = offerPC.Close() }()
	defer func() { _ = answerPC.Close() }()

	received := make(chan string, 1)
	answerPC.OnDataChannel(func(dc *DataChannel) {
		dc.OnMessage(func(msg DataChannelMessage) {
			received <- string(msg.Data)
		})
	})

	dc, err := offerPC.CreateDataChannel(DataChannelParameters{Label: "data"})
	require.NoError(t, err)

	negotiate(t, offerPC, answerPC)

	waitConnected(t, offerPC)
	waitConnected(t, answerPC)

	require.Eventually(t, func() bool {
		return dc.ReadyState() == DataChannelStateOpen
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, dc.SendText("hello"))

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPeerConnection_SignalingStateFollowsNegotiation(t *testing.T) {
	offerPC, answerPC, wan := createVNetPair(t)
	defer func() { _ = wan.Stop() }()
	defer func() { _ = offerPC.Close() }()
	defer func() { _ = answerPC.Close() }()

	assert.Equal(t, SignalingStateStable, offerPC.SignalingState())

	_, err := offerPC.CreateDataChannel(DataChannelParameters{Label: "data"})
	require.NoError(t, err)

	negotiate(t, offerPC, answerPC)

	assert.Equal(t, SignalingStateStable, offerPC.SignalingState())
	assert.Equal(t, SignalingStateStable, answerPC.SignalingState())
}

func TestPeerConnection_CreateAnswerWithoutOfferFails(t *testing.T) {
	pc, err := NewPeerConnection(Configuration{})
	require.NoError(t, err)
	defer func() { _ = pc.Close() }()

	_, err = pc.CreateAnswer(nil)
	assert.Error(t, err)
}

func TestPeerConnection_OperationsFailAfterClose(t *testing.T) {
	pc, err := NewPeerConnection(Configuration{})
	require.NoError(t, err)

	require.NoError(t, pc.Close())
	require.NoError(t, pc.Close())

	_, err = pc.CreateDataChannel(DataChannelParameters{Label: "data"})
	assert.ErrorIs(t, err, ErrConnectionClosed)

	err = pc.SetLocalDescription(nil)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
