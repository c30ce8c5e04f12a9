package authkey_test

import (
	"bytes"
	"testing"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/stretchr/testify/require"
)

func TestNewFromPasswordIsDeterministic(t *testing.T) {
	a := authkey.NewFromPassword("hunter2")
	b := authkey.NewFromPassword("hunter2")
	require.Equal(t, a, b)
}

func TestNewFromPasswordDiffersByPassword(t *testing.T) {
	a := authkey.NewFromPassword("hunter2")
	b := authkey.NewFromPassword("hunter3")
	require.NotEqual(t, a, b)
}

func TestNewFromPasswordSplitsEncAndMac(t *testing.T) {
	keys := authkey.NewFromPassword("hunter2")
	require.Len(t, keys.EncKey(), authkey.KeyLength)
	require.Len(t, keys.MacKey(), authkey.KeyLength)
	require.False(t, bytes.Equal(keys.EncKey(), keys.MacKey()))
}

func TestNewRejectsWrongLengths(t *testing.T) {
	_, err := authkey.New(make([]byte, 15), make([]byte, 16))
	require.Error(t, err)

	_, err = authkey.New(make([]byte, 16), make([]byte, 17))
	require.Error(t, err)
}

func TestNewRoundTrips(t *testing.T) {
	enc := bytes.Repeat([]byte{0x11}, authkey.KeyLength)
	mac := bytes.Repeat([]byte{0x22}, authkey.KeyLength)

	keys, err := authkey.New(enc, mac)
	require.NoError(t, err)
	require.Equal(t, enc, keys.EncKey())
	require.Equal(t, mac, keys.MacKey())
}

func TestZeroScrubsKeyMaterial(t *testing.T) {
	keys := authkey.NewFromPassword("hunter2")
	keys.Zero()
	require.Equal(t, authkey.StaticKeys{}, keys)
}
