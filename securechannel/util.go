package securechannel

import (
	"crypto/aes"
	"crypto/subtle"
)

// pad appends SCP03 padding to src: a single 0x80 byte followed by zero or
// more 0x00 bytes, extending src to the next multiple of the AES block
// size. Unlike textbook PKCS#7, the pad byte value does not encode the pad
// length — at least one byte of padding is always added, so a
// block-aligned input grows by a full block.
func pad(src []byte) []byte {
	padding := aes.BlockSize - len(src)%aes.BlockSize
	out := make([]byte, len(src)+padding)
	copy(out, src)
	out[len(src)] = 0x80
	return out
}

// unpad strips SCP03 padding from src, returning an error if no valid
// padding marker is present. A malformed marker most often indicates the
// plaintext was corrupted upstream of a MAC check that should have caught
// it; unpad still refuses to silently truncate garbage.
func unpad(src []byte) ([]byte, error) {
	if len(src) == 0 || len(src)%aes.BlockSize != 0 {
		return nil, &CryptoError{Reason: "padded plaintext has invalid length"}
	}

	for i := len(src) - 1; i >= 0 && len(src)-i <= aes.BlockSize; i-- {
		switch src[i] {
		case 0x00:
			continue
		case 0x80:
			return src[:i], nil
		default:
			return nil, &CryptoError{Reason: "padding marker not found"}
		}
	}

	return nil, &CryptoError{Reason: "padding marker not found"}
}

// zero scrubs b in place. Used to wipe session keys and derived key
// material as soon as it is no longer needed.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// constantTimeEqual reports whether a and b hold the same bytes, without
// branching on the content. Used for every cryptogram, MAC tag, and
// password-derived key comparison in the secure channel.
func constantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// ConstantTimeEqual is the exported form of constantTimeEqual, for callers
// outside this package that must compare cryptograms or MACs the same way
// the secure channel does — notably the mock device, which verifies a
// host's cryptogram with the same discipline a real card would.
func ConstantTimeEqual(a, b []byte) bool {
	return constantTimeEqual(a, b)
}
