package securechannel_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/hsmgo/yubihsm-go/commands"
	"github.com/hsmgo/yubihsm-go/mock"
	"github.com/hsmgo/yubihsm-go/securechannel"
	"github.com/stretchr/testify/require"
)

func newAuthenticatedChannel(t *testing.T) (*securechannel.SecureChannel, *mock.Device) {
	t.Helper()

	staticKeys, err := authkey.New(
		bytes.Repeat([]byte{0x10}, authkey.KeyLength),
		bytes.Repeat([]byte{0x20}, authkey.KeyLength),
	)
	require.NoError(t, err)

	device := mock.NewDevice()
	device.PutAuthKey(1, staticKeys)

	transport := mock.NewTransport(device)
	channel, err := securechannel.NewSecureChannel(transport, 1, staticKeys)
	require.NoError(t, err)

	require.Equal(t, securechannel.StateNew, channel.State())
	require.NoError(t, channel.Authenticate())
	require.Equal(t, securechannel.StateAuthenticated, channel.State())

	return channel, device
}

func TestAuthenticateEstablishesSession(t *testing.T) {
	newAuthenticatedChannel(t)
}

func TestAuthenticateFailsWithWrongKey(t *testing.T) {
	rightKeys, err := authkey.New(bytes.Repeat([]byte{0x10}, authkey.KeyLength), bytes.Repeat([]byte{0x20}, authkey.KeyLength))
	require.NoError(t, err)
	wrongKeys, err := authkey.New(bytes.Repeat([]byte{0x11}, authkey.KeyLength), bytes.Repeat([]byte{0x20}, authkey.KeyLength))
	require.NoError(t, err)

	device := mock.NewDevice()
	device.PutAuthKey(1, rightKeys)

	channel, err := securechannel.NewSecureChannel(mock.NewTransport(device), 1, wrongKeys)
	require.NoError(t, err)

	err = channel.Authenticate()
	require.Error(t, err)
	require.Equal(t, securechannel.StateFailed, channel.State())
}

func TestSendEncryptedCommandEchoRoundTrip(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)

	respCode, respPayload, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, uint8(commands.CommandTypeEcho)|commands.ResponseCommandOffset, respCode)
	require.Equal(t, []byte("ping"), respPayload)
}

func TestSendEncryptedCommandAdvancesCounterAndChain(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)
	require.Equal(t, uint32(1), channel.Counter())

	_, _, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("one"))
	require.NoError(t, err)
	require.Equal(t, uint32(2), channel.Counter())

	_, _, err = channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("two"))
	require.NoError(t, err)
	require.Equal(t, uint32(3), channel.Counter())
}

func TestSendEncryptedCommandUnsupportedCommandDoesNotFailSession(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)

	_, _, err := channel.SendEncryptedCommand(0xEE, nil)
	require.Error(t, err)
	require.Equal(t, securechannel.StateAuthenticated, channel.State())

	// The session is still usable after a non-fatal device error.
	respCode, respPayload, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), []byte("still alive"))
	require.NoError(t, err)
	require.Equal(t, uint8(commands.CommandTypeEcho)|commands.ResponseCommandOffset, respCode)
	require.Equal(t, []byte("still alive"), respPayload)
}

func TestCloseIsIdempotent(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)

	require.NoError(t, channel.Close())
	require.Equal(t, securechannel.StateClosed, channel.State())

	err := channel.Close()
	require.ErrorIs(t, err, securechannel.ErrSessionClosed)
}

func TestSendAfterCloseReturnsSessionClosed(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)
	require.NoError(t, channel.Close())

	_, _, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), nil)
	require.ErrorIs(t, err, securechannel.ErrSessionClosed)
}

func TestSessionLimitReachedClosesSession(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)
	channel.MaxCounter = 1

	// Counter starts at 1, so the exchange that consumes counter value 1
	// (the only value MaxCounter=1 allows) must still succeed.
	_, _, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), nil)
	require.NoError(t, err)

	// The next exchange would consume counter value 2, past the ceiling.
	_, _, err = channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), nil)
	require.ErrorIs(t, err, securechannel.ErrSessionLimitReached)
	require.Equal(t, securechannel.StateClosed, channel.State())
}

// TestSessionLimitAllowsExactlyMaxCounterExchanges mirrors §8 scenario S5
// literally: with MaxCounter=4 the host can send four Echo commands
// (consuming counter values 1..4) before a fifth is rejected.
func TestSessionLimitAllowsExactlyMaxCounterExchanges(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)
	channel.MaxCounter = 4

	for i := 0; i < 4; i++ {
		_, _, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), nil)
		require.NoError(t, err, "exchange %d (counter %d) should succeed", i+1, i+1)
	}
	require.Equal(t, securechannel.StateAuthenticated, channel.State())

	_, _, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), nil)
	require.ErrorIs(t, err, securechannel.ErrSessionLimitReached)
	require.Equal(t, securechannel.StateClosed, channel.State())
}

// TestHostAndMockStayInLockstep exercises §8's chain/counter invariant:
// running many random exchanges keeps host and mock synchronized.
func TestHostAndMockStayInLockstep(t *testing.T) {
	channel, _ := newAuthenticatedChannel(t)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		payload := make([]byte, rng.Intn(2035))
		rng.Read(payload)

		respCode, respPayload, err := channel.SendEncryptedCommand(uint8(commands.CommandTypeEcho), payload)
		require.NoError(t, err)
		require.Equal(t, uint8(commands.CommandTypeEcho)|commands.ResponseCommandOffset, respCode)
		require.Equal(t, payload, respPayload)
	}
	require.Equal(t, uint32(101), channel.Counter())
}
