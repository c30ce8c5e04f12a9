// Package authkey holds the two static symmetric secrets a host uses to
// bootstrap a secure channel, and the password-based KDF that can derive
// them, per the YubiHSM2 authentication key documentation.
package authkey

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyLength is the length in bytes of each half (enc, mac) of a StaticKeys pair.
	KeyLength = 16

	staticKeysLength = 2 * KeyLength
	pbkdf2Iterations = 10000
	pbkdf2Salt       = "Yubico"
)

// StaticKeys is the pair of 16-byte symmetric secrets (enc-key, mac-key)
// a host holds to establish a secure channel. Callers own its lifetime;
// the secure channel borrows it only during session establishment.
type StaticKeys [staticKeysLength]byte

// NewFromPassword derives a StaticKeys pair from a password using
// PBKDF2-HMAC-SHA256 with 10,000 iterations and the fixed salt "Yubico",
// as specified by the YubiHSM2 documentation.
func NewFromPassword(password string) StaticKeys {
	var keys StaticKeys
	copy(keys[:], pbkdf2.Key([]byte(password), []byte(pbkdf2Salt), pbkdf2Iterations, staticKeysLength, sha256.New))
	return keys
}

// New builds a StaticKeys pair from two explicit 16-byte keys.
func New(encKey, macKey []byte) (StaticKeys, error) {
	var keys StaticKeys
	if len(encKey) != KeyLength {
		return keys, errors.New("authkey: enc key must be 16 bytes")
	}
	if len(macKey) != KeyLength {
		return keys, errors.New("authkey: mac key must be 16 bytes")
	}
	copy(keys[:KeyLength], encKey)
	copy(keys[KeyLength:], macKey)
	return keys, nil
}

// EncKey returns the encryption half of the key pair.
func (k StaticKeys) EncKey() []byte {
	return k[:KeyLength]
}

// MacKey returns the MAC half of the key pair.
func (k StaticKeys) MacKey() []byte {
	return k[KeyLength:]
}

// Zero scrubs the key material in place.
func (k *StaticKeys) Zero() {
	for i := range k {
		k[i] = 0
	}
}
