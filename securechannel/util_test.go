package securechannel

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPadAlwaysAddsAtLeastOneByte(t *testing.T) {
	for size := 0; size <= aes.BlockSize*3; size++ {
		src := bytes.Repeat([]byte{0x7}, size)
		padded := pad(src)

		require.Greater(t, len(padded), len(src))
		require.Zero(t, len(padded)%aes.BlockSize)
		require.Equal(t, byte(0x80), padded[len(src)])
	}
}

func TestPadUnpadRoundTrip(t *testing.T) {
	for size := 0; size <= aes.BlockSize*3; size++ {
		src := bytes.Repeat([]byte{0x7}, size)
		padded := pad(src)

		unpadded, err := unpad(padded)
		require.NoError(t, err)
		require.Equal(t, src, unpadded)
	}
}

func TestUnpadRejectsMissingMarker(t *testing.T) {
	_, err := unpad(make([]byte, aes.BlockSize))
	require.Error(t, err)
}

func TestUnpadRejectsUnalignedLength(t *testing.T) {
	_, err := unpad(make([]byte, aes.BlockSize+1))
	require.Error(t, err)
}

func TestZeroScrubsSlice(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	zero(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, constantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 3}))
	require.False(t, constantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 4}))
	require.False(t, constantTimeEqual([]byte{1, 2}, []byte{1, 2, 3}))
}
