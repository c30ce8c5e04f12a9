package securechannel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKeyChain() *KeyChain {
	return &KeyChain{
		EncKey:  bytes.Repeat([]byte{0x01}, KeyLength),
		MacKey:  bytes.Repeat([]byte{0x02}, KeyLength),
		RMacKey: bytes.Repeat([]byte{0x03}, KeyLength),
	}
}

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)
	sessionID := uint8(7)
	counter := uint32(1)

	newChain, wireFrame, err := EncodeMessage(keys, DirectionCommand, 0x05, sessionID, counter, chain, 0x01, []byte("hello, hsm"))
	require.NoError(t, err)
	require.NotEmpty(t, wireFrame)

	decodedChain, code, payload, err := DecodeMessage(keys, DirectionCommand, sessionID, counter, chain, wireFrame)
	require.NoError(t, err)
	require.Equal(t, newChain, decodedChain)
	require.Equal(t, uint8(0x01), code)
	require.Equal(t, []byte("hello, hsm"), payload)
}

func TestEncodeMessageHandlesEmptyPayload(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)

	_, wireFrame, err := EncodeMessage(keys, DirectionCommand, 0x05, 1, 1, chain, 0x40, nil)
	require.NoError(t, err)

	_, code, payload, err := DecodeMessage(keys, DirectionCommand, 1, 1, chain, wireFrame)
	require.NoError(t, err)
	require.Equal(t, uint8(0x40), code)
	require.Empty(t, payload)
}

func TestDecodeMessageDetectsTamperedCiphertext(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)

	_, wireFrame, err := EncodeMessage(keys, DirectionCommand, 0x05, 1, 1, chain, 0x01, []byte("authentic payload"))
	require.NoError(t, err)

	tampered := append([]byte(nil), wireFrame...)
	tampered[len(tampered)-10] ^= 0xFF

	_, _, _, err = DecodeMessage(keys, DirectionCommand, 1, 1, chain, tampered)
	require.Error(t, err)
	require.IsType(t, &CryptoError{}, err)
}

func TestDecodeMessageDetectsSessionIDMismatch(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)

	_, wireFrame, err := EncodeMessage(keys, DirectionCommand, 0x05, 1, 1, chain, 0x01, []byte("payload"))
	require.NoError(t, err)

	_, _, _, err = DecodeMessage(keys, DirectionCommand, 2, 1, chain, wireFrame)
	require.Error(t, err)
	require.IsType(t, &ProtocolError{}, err)
}

func TestEncodeMessageRejectsOversizedInnerPayload(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)

	big := make([]byte, 3000)
	_, _, err := EncodeMessage(keys, DirectionCommand, 0x05, 1, 1, chain, 0x01, big)
	require.Error(t, err)
}

func TestCommandAndResponseUseDistinctMacKeys(t *testing.T) {
	keys := testKeyChain()
	chain := make([]byte, KeyLength)

	cmdChain, _, err := EncodeMessage(keys, DirectionCommand, 0x05, 1, 1, chain, 0x01, []byte("x"))
	require.NoError(t, err)
	respChain, _, err := EncodeMessage(keys, DirectionResponse, 0x85, 1, 1, chain, 0x01, []byte("x"))
	require.NoError(t, err)

	require.NotEqual(t, cmdChain, respChain)
}
