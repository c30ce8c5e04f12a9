package mock_test

import (
	"bytes"
	"testing"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/hsmgo/yubihsm-go/commands"
	"github.com/hsmgo/yubihsm-go/frame"
	"github.com/hsmgo/yubihsm-go/mock"
	"github.com/hsmgo/yubihsm-go/securechannel"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionUnknownAuthKeyReturnsObjectNotFound(t *testing.T) {
	device := mock.NewDevice()

	cmd, err := commands.CreateCreateSessionCommand(1, bytes.Repeat([]byte{0xAA}, 8))
	require.NoError(t, err)
	wireFrame, err := cmd.Serialize()
	require.NoError(t, err)

	resp, err := device.Handle(wireFrame)
	require.NoError(t, err)

	code, payload, err := frame.Decode(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(commands.ErrorResponseCode), code)
	require.Equal(t, commands.ErrorCodeObjectNotFound, commands.ErrorCode(payload[0]))
}

func TestSessionMessageBeforeAuthenticateIsRejected(t *testing.T) {
	device := mock.NewDevice()
	wireFrame, err := frame.Encode(uint8(commands.CommandTypeSessionMessage), []byte{0x00})
	require.NoError(t, err)

	resp, err := device.Handle(wireFrame)
	require.NoError(t, err)

	code, payload, err := frame.Decode(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(commands.ErrorResponseCode), code)
	require.Equal(t, commands.ErrorCodeInvalidSession, commands.ErrorCode(payload[0]))
}

func TestCreateSessionRejectsMalformedPayload(t *testing.T) {
	device := mock.NewDevice()
	device.PutAuthKey(1, authkey.NewFromPassword("irrelevant"))

	wireFrame, err := frame.Encode(uint8(commands.CommandTypeCreateSession), []byte{0x00, 0x01})
	require.NoError(t, err)

	resp, err := device.Handle(wireFrame)
	require.NoError(t, err)

	code, payload, err := frame.Decode(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(commands.ErrorResponseCode), code)
	require.Equal(t, commands.ErrorCodeWrongLength, commands.ErrorCode(payload[0]))
}

func TestUnknownCommandReturnsInvalidCommand(t *testing.T) {
	device := mock.NewDevice()
	wireFrame, err := frame.Encode(0x99, nil)
	require.NoError(t, err)

	resp, err := device.Handle(wireFrame)
	require.NoError(t, err)

	code, payload, err := frame.Decode(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(commands.ErrorResponseCode), code)
	require.Equal(t, commands.ErrorCodeInvalidCommand, commands.ErrorCode(payload[0]))
}

// TestTwoSessionsInterleaveIndependently mirrors §8 scenario S6: two
// sessions against the same device each keep their own counter and MAC
// chain, and interleaving their Echo calls does not disturb the other.
func TestTwoSessionsInterleaveIndependently(t *testing.T) {
	staticKeys, err := authkey.New(bytes.Repeat([]byte{0x10}, authkey.KeyLength), bytes.Repeat([]byte{0x20}, authkey.KeyLength))
	require.NoError(t, err)

	device := mock.NewDevice()
	device.PutAuthKey(1, staticKeys)

	channelA, err := securechannel.NewSecureChannel(mock.NewTransport(device), 1, staticKeys)
	require.NoError(t, err)
	require.NoError(t, channelA.Authenticate())

	channelB, err := securechannel.NewSecureChannel(mock.NewTransport(device), 1, staticKeys)
	require.NoError(t, err)
	require.NoError(t, channelB.Authenticate())

	require.NotEqual(t, channelA.ID(), channelB.ID())

	_, payloadA, err := channelA.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("from A"))
	require.NoError(t, err)
	require.Equal(t, []byte("from A"), payloadA)
	require.Equal(t, uint32(2), channelA.Counter())
	require.Equal(t, uint32(1), channelB.Counter())

	_, payloadB, err := channelB.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("from B"))
	require.NoError(t, err)
	require.Equal(t, []byte("from B"), payloadB)
	require.Equal(t, uint32(2), channelB.Counter())

	_, payloadA, err = channelA.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("from A again"))
	require.NoError(t, err)
	require.Equal(t, []byte("from A again"), payloadA)
	require.Equal(t, uint32(3), channelA.Counter())
	require.Equal(t, uint32(2), channelB.Counter())

	require.NoError(t, channelA.Close())
	require.Equal(t, securechannel.StateAuthenticated, channelB.State())

	_, payloadB, err = channelB.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("B survives A's close"))
	require.NoError(t, err)
	require.Equal(t, []byte("B survives A's close"), payloadB)
}

// TestCreateSessionRejectsBeyondMaxSessions exercises §5's "the device
// limits concurrent sessions to 16": the 17th concurrently pending session
// is rejected with ErrorCodeSessionFull rather than silently discarding one
// of the existing 16.
func TestCreateSessionRejectsBeyondMaxSessions(t *testing.T) {
	device := mock.NewDevice()
	device.PutAuthKey(1, authkey.NewFromPassword("irrelevant"))

	cmd, err := commands.CreateCreateSessionCommand(1, bytes.Repeat([]byte{0xAA}, 8))
	require.NoError(t, err)
	wireFrame, err := cmd.Serialize()
	require.NoError(t, err)

	for i := 0; i < mock.MaxSessions; i++ {
		resp, err := device.Handle(wireFrame)
		require.NoError(t, err)
		code, _, err := frame.Decode(resp)
		require.NoError(t, err)
		require.NotEqual(t, uint8(commands.ErrorResponseCode), code, "session %d should have been accepted", i)
	}

	resp, err := device.Handle(wireFrame)
	require.NoError(t, err)
	code, payload, err := frame.Decode(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(commands.ErrorResponseCode), code)
	require.Equal(t, commands.ErrorCodeSessionFull, commands.ErrorCode(payload[0]))
}
