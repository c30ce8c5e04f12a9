package securechannel

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// CMAC test vectors from NIST SP800-38B appendix D, AES-128 under the
// fixed key 2b7e151628aed2a6abf7158809cf4f3c.
func TestCmacSumMatchesNistVectors(t *testing.T) {
	key, err := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	require.NoError(t, err)

	cases := []struct {
		name     string
		message  string
		expected string
	}{
		{"empty message", "", "bb1d6929e95937287fa37d129b756746"},
		{"16-byte message", "6bc1bee22e409f96e93d7e117393172a", "070a16b46b4d4144f79bdd9dd04a287c"},
		{"40-byte message", "6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e5130c81c46a35ce411", "dfa66747de9ae63030ca32611497c827"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			message, err := hex.DecodeString(tc.message)
			require.NoError(t, err)
			want, err := hex.DecodeString(tc.expected)
			require.NoError(t, err)

			got, err := cmacSum(key, message)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestCbcEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range iv {
		iv[i] = byte(0xA0 + i)
	}
	plaintext := make([]byte, 32)
	for i := range plaintext {
		plaintext[i] = byte(i * 3)
	}

	ciphertext, err := cbcEncrypt(key, iv, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	decrypted, err := cbcDecrypt(key, iv, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestCbcDecryptRejectsUnalignedCiphertext(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	_, err := cbcDecrypt(key, iv, make([]byte, 17))
	require.Error(t, err)
}

func TestEncryptBlockIsDeterministic(t *testing.T) {
	key := make([]byte, 16)
	block := make([]byte, 16)
	a, err := encryptBlock(key, block)
	require.NoError(t, err)
	b, err := encryptBlock(key, block)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.NotEqual(t, block, a)
}
